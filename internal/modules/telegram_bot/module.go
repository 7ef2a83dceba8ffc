package telegram

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"pump_bot/internal/engine"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/telegram_bot/service"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewTelegram,
			NewNotifier,
		),
		// long polling через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				if t == nil {
					return
				}
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						// ctx хука живёт только до конца старта
						t.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}

// NewTelegram возвращает nil, если токен или чат не заданы: тогда работаем без пульта.
func NewTelegram(cfg *config.Config, st *engine.State) (*service.Telegram, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		logger.Warn("telegram: token or chat_id is empty, notifications go to log")
		return nil, nil
	}
	bot, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return service.NewTelegram(bot, cfg.Telegram.ChatID, st, cfg.Telegram.PollTimeout), nil
}

func NewNotifier(t *service.Telegram) notify.Notifier {
	if t == nil {
		return notify.NewStdout()
	}
	return t
}
