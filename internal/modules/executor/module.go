package executor

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/engine"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/executor/service"
	mexcsvc "pump_bot/internal/modules/mexc/service"
	storesvc "pump_bot/internal/modules/store/service"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

// NewActionQueue — общая ограниченная очередь: пишут шарды, читает один исполнитель.
func NewActionQueue(cfg *config.Config) chan models.TradeAction {
	return make(chan models.TradeAction, cfg.Executor.QueueSize)
}

func NewExecutor(
	state *engine.State,
	client *mexcsvc.Client,
	store storesvc.Store,
	n notify.Notifier,
	queue chan models.TradeAction,
) *service.Executor {
	return service.New(state, client, store, n, queue)
}

func Run(lc fx.Lifecycle, ex *service.Executor) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ex.Run(ctx)
			}()
			logger.Info("[EXEC] executor started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			NewActionQueue,
			NewExecutor,
		),
		fx.Invoke(Run),
	)
}
