package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_bot/internal/engine"
	"pump_bot/pkg/logger"
)

const defaultPollTimeout = 30

// BotAPI — то, что нам нужно от *tgbot.BotAPI. В тестах подменяется.
type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram — пульт оператора. Обслуживает один чат и заодно шлёт туда
// уведомления о сделках.
type Telegram struct {
	bot         BotAPI
	chatID      int64
	state       *engine.State
	pollTimeout int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTelegram(bot BotAPI, chatID int64, state *engine.State, pollTimeout int) *Telegram {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Telegram{
		bot:         bot,
		chatID:      chatID,
		state:       state,
		pollTimeout: pollTimeout,
	}
}

// Send — текст в чат оператора. Ошибки только логируем: уведомление не должно
// ломать торговый путь.
func (t *Telegram) Send(_ context.Context, msg string) {
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

func (t *Telegram) reply(text string) {
	m := tgbot.NewMessage(t.chatID, text)
	m.ParseMode = tgbot.ModeMarkdown
	if _, err := t.bot.Send(m); err != nil {
		logger.Warn("telegram reply: %v", err)
	}
}

// Start запускает long polling в фоне. Цикл живёт до Stop или отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	u := tgbot.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
	logger.Info("telegram: polling chat %d", t.chatID)
}

func (t *Telegram) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.bot.StopReceivingUpdates()
	t.wg.Wait()
}
