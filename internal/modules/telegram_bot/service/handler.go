package service

import (
	"context"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/pkg/logger"
)

const (
	msgHelp          = "🚀 *PUMP ENGINE*\n\n/run — запуск (спросит сумму)\n/stop — остановка\n/status — состояние и позиции\n/report — итог по закрытым сделкам"
	msgAskAmount     = "💳 Amount (USDT):"
	msgInvalidAmount = "⚠️ Invalid Amount."
	msgHalted        = "🛑 Halted."
)

func (t *Telegram) handleUpdate(_ context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	// чужие чаты молча игнорируем
	if msg.Chat.ID != t.chatID {
		logger.Debug("telegram: ignore chat %d", msg.Chat.ID)
		return
	}

	if msg.IsCommand() {
		t.handleCommand(msg.Command())
		return
	}

	if t.state.AwaitingAmount() {
		t.handleAmount(msg.Text)
	}
}

func (t *Telegram) handleCommand(cmd string) {
	switch cmd {
	case "start", "help":
		t.reply(msgHelp)

	case "run":
		t.state.SetAwaitingAmount(true)
		t.reply(msgAskAmount)

	case "stop":
		t.state.SetAwaitingAmount(false)
		t.state.SetRunning(false)
		t.reply(msgHalted)

	case "status":
		t.reply(formatStatus(t.state.Running(), t.state.Positions()))

	case "report":
		t.reply(formatReport(t.state.ClosedTrades()))

	default:
		t.reply("Неизвестная команда. /start — список команд")
	}
}

func (t *Telegram) handleAmount(text string) {
	amount, ok := parseAmount(text)
	if !ok {
		t.reply(msgInvalidAmount)
		return
	}
	if err := t.state.Engage(amount); err != nil {
		t.reply(msgInvalidAmount)
		return
	}
	logger.Info("telegram: engaged, trade amount %.2f", amount)
	t.reply("✅ HFT ENGAGED. Alloc: " + f2(amount) + " USDT")
}

// parseAmount принимает "100", "12.5" и "12,5".
func parseAmount(text string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !validAmount(v) {
		return 0, false
	}
	return v, true
}
