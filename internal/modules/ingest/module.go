package ingest

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"pump_bot/internal/engine"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	healthsvc "pump_bot/internal/modules/health/service"
	"pump_bot/internal/modules/ingest/service"
	mexcsvc "pump_bot/internal/modules/mexc/service"
	"pump_bot/pkg/logger"
)

type Params struct {
	fx.In

	LC      fx.Lifecycle
	Cfg     *config.Config
	Mexc    *mexcsvc.Client
	Engine  *engine.State
	Health  *healthsvc.State
	Actions chan models.TradeAction
}

// Run поднимает шарды в фоне. Список символов тянется уже после старта приложения,
// чтобы сетевые проблемы биржи не валили запуск.
func Run(p Params) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				start(ctx, p)
			}()
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

func start(ctx context.Context, p Params) {
	icfg := p.Cfg.Ingest

	symbols := service.NormalizeSymbols(icfg.Symbols)
	if len(symbols) == 0 {
		symbols = discoverSymbols(ctx, p.Mexc, icfg.QuoteAsset, icfg.BackoffMin, icfg.BackoffMax)
		if ctx.Err() != nil {
			return
		}
	}
	logger.Info("[WS] loaded %d %s pairs", len(symbols), icfg.QuoteAsset)

	chunks := service.Partition(symbols, icfg.SymbolsPerShard)
	limiter := rate.NewLimiter(rate.Limit(icfg.DialRate), icfg.DialBurst)
	if icfg.DialRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	shardCfg := service.ShardConfig{
		URL:          p.Cfg.Mexc.WsURL,
		BackoffMin:   icfg.BackoffMin,
		BackoffMax:   icfg.BackoffMax,
		PingInterval: icfg.PingInterval,
		ReadTimeout:  icfg.ReadTimeout,
	}

	runners := make([]service.Runner, 0, len(chunks))
	for i, chunk := range chunks {
		runners = append(runners, service.NewShard(i, chunk, shardCfg, limiter, p.Engine, p.Health, p.Actions))
	}

	sup := service.NewSupervisor(runners, icfg.StartStagger, icfg.BackoffMin)
	p.Health.SetShardsTotal(sup.Len())
	p.Health.SetReady(true)
	logger.Info("[WS] starting %d shards x %d symbols", sup.Len(), icfg.SymbolsPerShard)

	_ = sup.Run(ctx)
	logger.Info("[WS] shards stopped")
}

// discoverSymbols повторяет exchangeInfo, пока не получит непустой список или не отменят ctx.
func discoverSymbols(ctx context.Context, c *mexcsvc.Client, quote string, minDelay, maxDelay time.Duration) []string {
	b := &backoff.Backoff{Min: minDelay, Max: maxDelay, Factor: 2, Jitter: true}
	for {
		symbols, err := c.ListSymbols(ctx, quote)
		if err == nil && len(symbols) > 0 {
			return symbols
		}
		delay := b.Duration()
		if err != nil {
			logger.Warn("[WS] exchangeInfo: %v, retry in %s", err, delay)
		} else {
			logger.Warn("[WS] no %s pairs loaded, retry in %s", quote, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func Module() fx.Option {
	return fx.Module("ingest",
		fx.Invoke(Run),
	)
}
