package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pump_bot/internal/engine"
	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	mexc "pump_bot/internal/modules/mexc/service"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, creds mexc.Credentials, req mexc.OrderRequest) error
}

type Saver interface {
	Save(ctx context.Context, snap models.Snapshot) error
}

// Executor — единственный потребитель очереди действий. Ордера уходят строго
// по одному, в порядке постановки в очередь.
type Executor struct {
	state    *engine.State
	orders   OrderPlacer
	store    Saver
	notifier notify.Notifier
	queue    <-chan models.TradeAction
	haircut  float64

	newID func() string
	now   func() time.Time
}

func New(
	state *engine.State,
	orders OrderPlacer,
	store Saver,
	notifier notify.Notifier,
	queue <-chan models.TradeAction,
) *Executor {
	return &Executor{
		state:    state,
		orders:   orders,
		store:    store,
		notifier: notifier,
		queue:    queue,
		haircut:  state.Config().FeeHaircut,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Run разбирает очередь до отмены ctx или закрытия канала.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case act, ok := <-e.queue:
			if !ok {
				return
			}
			metrics.QueueDepth.Set(float64(len(e.queue)))
			e.Handle(ctx, act)
		}
	}
}

func (e *Executor) Handle(ctx context.Context, act models.TradeAction) {
	switch act.Side {
	case models.SideBuy:
		e.buy(ctx, act)
	case models.SideSell:
		e.sell(ctx, act)
	default:
		logger.Error("[EXEC] unknown action side %q for %s", act.Side, act.Symbol)
	}
}

func (e *Executor) buy(ctx context.Context, act models.TradeAction) {
	// копия под локом, сеть — уже без него
	rc := e.state.RuntimeConfig()
	amount := rc.TradeAmount
	if amount <= 0 {
		e.state.AbortEntry(act.Symbol)
		logger.Warn("[EXEC] BUY %s skipped: trade amount is not set", act.Symbol)
		e.notifier.Sendf(ctx, "⚠️ BUY %s пропущен: не задана сумма сделки", act.Symbol)
		return
	}

	err := e.orders.PlaceMarketOrder(ctx, credentials(rc), mexc.OrderRequest{
		Symbol:   act.Symbol,
		Side:     models.SideBuy,
		QuoteQty: amount,
	})
	metrics.OrdersTotal.WithLabelValues(string(models.SideBuy), metrics.Result(err)).Inc()
	if err != nil {
		e.state.AbortEntry(act.Symbol)
		logger.Error("[EXEC] BUY %s failed: %v", act.Symbol, err)
		e.notifier.Sendf(ctx, "❗️ BUY %s не прошёл: %v", act.Symbol, err)
		return
	}

	qty := amount / act.Price * e.haircut
	if _, err := e.state.OpenPosition(act.Symbol, act.Price, qty); err != nil {
		// ордер на бирже исполнен, а позицию записать нельзя — это дефект, не перезаписываем
		logger.Error("[EXEC] BUY %s filled but position rejected: %v", act.Symbol, err)
		e.notifier.Sendf(ctx, "❗️ BUY %s исполнен, но позиция не записана: %v", act.Symbol, err)
		return
	}
	e.afterChange(ctx)

	logger.Info("[EXEC] BUY %s @ %v qty=%.4f", act.Symbol, act.Price, qty)
	e.notifier.Sendf(ctx, "🟢 BUY %s @ %v", act.Symbol, act.Price)
}

func (e *Executor) sell(ctx context.Context, act models.TradeAction) {
	rc := e.state.RuntimeConfig()

	err := e.orders.PlaceMarketOrder(ctx, credentials(rc), mexc.OrderRequest{
		Symbol:   act.Symbol,
		Side:     models.SideSell,
		Quantity: act.Quantity,
	})
	metrics.OrdersTotal.WithLabelValues(string(models.SideSell), metrics.Result(err)).Inc()
	if err != nil {
		// позиция остаётся, следующий тик снова проверит трейлинг
		e.state.ReleaseExit(act.Symbol)
		logger.Error("[EXEC] SELL %s failed: %v", act.Symbol, err)
		e.notifier.Sendf(ctx, "❗️ SELL %s не прошёл: %v", act.Symbol, err)
		return
	}

	if _, err := e.state.ClosePosition(act.Symbol); err != nil {
		logger.Error("[EXEC] SELL %s filled but no position to close: %v", act.Symbol, err)
	}

	pnl := (act.Price - act.EntryPrice) * act.Quantity
	pct := 0.0
	if act.EntryPrice > 0 {
		pct = (act.Price - act.EntryPrice) / act.EntryPrice
	}
	e.state.RecordClosedTrade(models.ClosedTrade{
		ID:          e.newID(),
		Symbol:      act.Symbol,
		PnLPercent:  pct,
		ProfitQuote: pnl,
		CloseTime:   models.FormatTime(e.now()),
	})
	e.afterChange(ctx)

	logger.Info("[EXEC] SELL %s @ %v pnl=%.4f (%.2f%%)", act.Symbol, act.Price, pnl, pct*100)
	e.notifier.Sendf(ctx, "💰 SELL %s | PNL: %s USDT (%s%%)",
		act.Symbol,
		decimal.NewFromFloat(pnl).StringFixed(2),
		decimal.NewFromFloat(pct*100).StringFixed(2),
	)
}

// afterChange сохраняет снапшот и обновляет метрики. Ошибка хранилища не откатывает сделку.
func (e *Executor) afterChange(ctx context.Context) {
	metrics.OpenPositions.Set(float64(e.state.Stats().Positions))
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, e.state.Snapshot()); err != nil {
		logger.Error("[STORE] save snapshot: %v", err)
	}
}

func credentials(rc engine.RuntimeConfig) mexc.Credentials {
	return mexc.Credentials{APIKey: rc.APIKey, APISecret: rc.APISecret}
}
