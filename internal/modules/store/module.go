package store

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/store/service"
	"pump_bot/pkg/db"
	"pump_bot/pkg/logger"
)

// NewStore выбирает драйвер по store.driver. Пул postgres закрывается на OnStop.
func NewStore(lc fx.Lifecycle, cfg *config.Config) (service.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		ctx := context.Background()
		pool, err := db.NewPool(ctx, db.PoolConfig{
			DSN:      cfg.Store.DSN,
			MaxConns: cfg.Store.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		tm := db.NewPgTxManager(pool)
		pg := service.NewPostgres(tm)
		if err := pg.Migrate(ctx); err != nil {
			tm.Close()
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				tm.Close()
				return nil
			},
		})
		logger.Info("[STORE] postgres store ready")
		return pg, nil
	default:
		logger.Info("[STORE] file store: %s", cfg.Store.Path)
		return service.NewFile(cfg.Store.Path), nil
	}
}

func Module() fx.Option {
	return fx.Module("store",
		fx.Provide(
			NewStore,
		),
	)
}
