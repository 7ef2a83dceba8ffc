package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	mexc "pump_bot/internal/modules/mexc/service"
	"pump_bot/pkg/logger"
)

const writeTimeout = 10 * time.Second

// Detector — вход в детектор под общим локом.
type Detector interface {
	TryDetect(symbol string, price float64) (models.TradeAction, bool)
}

// Reporter — куда шард отчитывается о соединении и тиках (health).
type Reporter interface {
	ShardUp()
	ShardDown()
	TouchTick(t time.Time)
}

type ShardConfig struct {
	URL          string
	BackoffMin   time.Duration
	BackoffMax   time.Duration
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

// Shard держит одну подписку на сделки по своей пачке символов и переподключается
// бесконечно, пока жив ctx.
type Shard struct {
	id      int
	symbols []string
	cfg     ShardConfig

	dialer   *websocket.Dialer
	limiter  *rate.Limiter
	detector Detector
	reporter Reporter
	out      chan<- models.TradeAction
}

func NewShard(
	id int,
	symbols []string,
	cfg ShardConfig,
	limiter *rate.Limiter,
	detector Detector,
	reporter Reporter,
	out chan<- models.TradeAction,
) *Shard {
	return &Shard{
		id:       id,
		symbols:  symbols,
		cfg:      cfg,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		limiter:  limiter,
		detector: detector,
		reporter: reporter,
		out:      out,
	}
}

// Run крутится до отмены ctx. Раньше выходит только если лимитер дозвона
// никогда не пропустит (burst 0): такой шард бессмысленно перезапускать молча.
func (s *Shard) Run(ctx context.Context) error {
	b := &backoff.Backoff{
		Min:    s.cfg.BackoffMin,
		Max:    s.cfg.BackoffMax,
		Factor: 2,
		Jitter: true,
	}

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("dial limiter: %w", err)
			}
		}

		subscribed, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if subscribed {
			b.Reset()
		}

		delay := b.Duration()
		metrics.WSReconnectsTotal.Inc()
		logger.Warn("[WS] shard %d (%d symbols): %v, reconnect in %s", s.id, len(s.symbols), err, delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session — одно соединение: dial, подписка, чтение до первой ошибки.
// subscribed=true, если подписка ушла (значит backoff можно сбросить).
func (s *Shard) session(ctx context.Context) (subscribed bool, err error) {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub, err := mexc.SubscribeDeals(s.symbols)
	if err != nil {
		return false, fmt.Errorf("subscribe payload: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	s.reporter.ShardUp()
	metrics.ShardsConnected.Inc()
	defer func() {
		s.reporter.ShardDown()
		metrics.ShardsConnected.Dec()
	}()
	logger.Debug("[WS] shard %d subscribed to %d symbols", s.id, len(s.symbols))

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, conn, done)

	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		if !s.handleFrame(ctx, msg) {
			return true, ctx.Err()
		}
	}
}

// keepalive шлёт PING и закрывает соединение при отмене ctx, чтобы разбудить ReadMessage.
// После подписки это единственный писатель в conn.
func (s *Shard) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	var tick <-chan time.Time
	if s.cfg.PingInterval > 0 {
		t := time.NewTicker(s.cfg.PingInterval)
		defer t.Stop()
		tick = t.C
	}
	ping := mexc.Ping()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-tick:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// handleFrame: кривые фреймы и цены молча выкидываются. false — ctx отменён.
func (s *Shard) handleFrame(ctx context.Context, frame []byte) bool {
	deals, dropped, err := mexc.DecodeDeals(frame)
	if err != nil {
		return true
	}
	if dropped > 0 {
		metrics.DroppedTicksTotal.Add(float64(dropped))
	}
	if len(deals) == 0 {
		return true
	}
	s.reporter.TouchTick(time.Now())

	for _, d := range deals {
		metrics.TicksTotal.Inc()
		act, ok := s.detector.TryDetect(d.Symbol, d.Price)
		if !ok {
			continue
		}
		metrics.ActionsTotal.WithLabelValues(string(act.Side)).Inc()
		select {
		case s.out <- act:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
