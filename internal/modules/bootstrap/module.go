package bootstrap

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/engine"
	bootstrap "pump_bot/internal/modules/bootstrap/service"
	"pump_bot/internal/modules/config"
	storesvc "pump_bot/internal/modules/store/service"
	"pump_bot/pkg/logger"
	"pump_bot/pkg/tracing"
)

// NewState — единственное состояние движка на процесс.
func NewState(cfg *config.Config) *engine.State {
	return engine.NewState(cfg.EngineConfig(), engine.RuntimeConfig{
		APIKey:      cfg.Mexc.APIKey,
		APISecret:   cfg.Mexc.APISecret,
		ChatID:      cfg.Telegram.ChatID,
		TradeAmount: cfg.Engine.TradeAmount,
	})
}

func NewRestorer(store storesvc.Store, st *engine.State) *bootstrap.Restorer {
	return bootstrap.NewRestorer(store, st)
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	logger.Info("[BOOT] tracing -> %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	return nil
}

// Модуль должен стоять до ingest и executor: fx запускает OnStart в порядке регистрации.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			NewState,
			NewRestorer,
		),
		fx.Invoke(initTracing),
		fx.Invoke(func(lc fx.Lifecycle, r *bootstrap.Restorer) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return r.Restore(ctx)
				},
			})
		}),
	)
}
