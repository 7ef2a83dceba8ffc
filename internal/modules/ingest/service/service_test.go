package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

func TestPartition(t *testing.T) {
	syms := make([]string, 0, 65)
	for i := 0; i < 65; i++ {
		syms = append(syms, string(rune('A'+i%26))+"USDT")
	}

	parts := Partition(syms, 30)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 30)
	assert.Len(t, parts[1], 30)
	assert.Len(t, parts[2], 5)

	var joined []string
	for _, p := range parts {
		joined = append(joined, p...)
	}
	assert.Equal(t, syms, joined)

	assert.Nil(t, Partition(nil, 30))
	assert.Nil(t, Partition(syms, 0))
}

func TestNormalizeSymbols_NoSymbolInTwoShards(t *testing.T) {
	got := NormalizeSymbols([]string{"busdt", "AUSDT", " BUSDT ", "", "CUSDT", "AUSDT"})
	assert.Equal(t, []string{"AUSDT", "BUSDT", "CUSDT"}, got)

	seen := map[string]int{}
	for _, chunk := range Partition(got, 2) {
		for _, s := range chunk {
			seen[s]++
		}
	}
	for s, n := range seen {
		assert.Equal(t, 1, n, s)
	}
	assert.Empty(t, NormalizeSymbols(nil))
}

type thresholdDetector struct {
	mu     sync.Mutex
	seen   []float64
	buyAt  float64
	symbol string
}

func (d *thresholdDetector) TryDetect(symbol string, price float64) (models.TradeAction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, price)
	d.symbol = symbol
	if price >= d.buyAt {
		return models.NewBuy(symbol, price), true
	}
	return models.TradeAction{}, false
}

func (d *thresholdDetector) prices() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.seen...)
}

type countingReporter struct {
	up, down, ticks atomic.Int32
}

func (r *countingReporter) ShardUp()            { r.up.Add(1) }
func (r *countingReporter) ShardDown()          { r.down.Add(1) }
func (r *countingReporter) TouchTick(time.Time) { r.ticks.Add(1) }

// dealsServer отдаёт каждому соединению frames и закрывает его.
func dealsServer(t *testing.T, frames ...string) (*httptest.Server, *atomic.Int32, chan string) {
	t.Helper()
	var conns atomic.Int32
	subs := make(chan string, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		conns.Add(1)

		_, sub, err := c.ReadMessage()
		if err != nil {
			return
		}
		select {
		case subs <- string(sub):
		default:
		}
		for _, f := range frames {
			if err := c.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns, subs
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestShard_ForwardsActionsAndReconnects(t *testing.T) {
	srv, conns, subs := dealsServer(t,
		`{"id":0,"code":0,"msg":"spot@public.deals.v3.api@AUSDT"}`,
		`garbage`,
		`{"c":"spot@public.deals.v3.api@AUSDT","d":{"deals":[{"p":"1.00"},{"p":"bad"},{"p":"1.10"}]},"s":"AUSDT"}`,
	)

	det := &thresholdDetector{buyAt: 1.05}
	rep := &countingReporter{}
	out := make(chan models.TradeAction, 4)

	sh := NewShard(7, []string{"AUSDT", "BUSDT"}, ShardConfig{
		URL:        wsURL(srv),
		BackoffMin: 10 * time.Millisecond,
		BackoffMax: 20 * time.Millisecond,
	}, rate.NewLimiter(rate.Inf, 0), det, rep, out)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sh.Run(ctx) }()

	select {
	case act := <-out:
		assert.Equal(t, models.NewBuy("AUSDT", 1.10), act)
	case <-time.After(5 * time.Second):
		t.Fatal("no action forwarded")
	}

	sub := <-subs
	assert.Contains(t, sub, `"SUBSCRIPTION"`)
	assert.Contains(t, sub, `spot@public.deals.v3.api@AUSDT`)
	assert.Contains(t, sub, `spot@public.deals.v3.api@BUSDT`)

	// сервер рвёт соединение после фреймов — шард должен переподключиться
	require.Eventually(t, func() bool { return conns.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("shard did not stop")
	}

	assert.Equal(t, []float64{1.00, 1.10}, det.prices()[:2])
	assert.GreaterOrEqual(t, rep.ticks.Load(), int32(1))
	assert.Eventually(t, func() bool { return rep.up.Load() == rep.down.Load() }, time.Second, 10*time.Millisecond)
}

func TestShard_DialFailureRetriesUntilCancel(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sh := NewShard(0, []string{"AUSDT"}, ShardConfig{
		URL:        wsURL(srv),
		BackoffMin: 5 * time.Millisecond,
		BackoffMax: 10 * time.Millisecond,
	}, nil, &thresholdDetector{buyAt: 1e9}, &countingReporter{}, make(chan models.TradeAction))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := sh.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, attempts.Load(), int32(2))
}

func TestShard_ZeroBurstLimiterReturnsError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))
	defer srv.Close()

	sh := NewShard(0, []string{"AUSDT"}, ShardConfig{
		URL:        wsURL(srv),
		BackoffMin: 5 * time.Millisecond,
		BackoffMax: 10 * time.Millisecond,
	}, rate.NewLimiter(rate.Limit(5), 0), &thresholdDetector{buyAt: 1e9}, &countingReporter{}, make(chan models.TradeAction))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := sh.Run(ctx)

	require.Error(t, err)
	assert.NoError(t, ctx.Err())
	assert.Contains(t, err.Error(), "dial limiter")
	assert.Zero(t, attempts.Load())
}

type flakyRunner struct {
	calls atomic.Int32
}

func (f *flakyRunner) Run(ctx context.Context) error {
	if f.calls.Add(1) == 1 {
		panic("boom")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSupervisor_RestartsAndStops(t *testing.T) {
	a, b := &flakyRunner{}, &flakyRunner{}
	sup := NewSupervisor([]Runner{a, b}, time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 2, sup.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.calls.Load() >= 2 && b.calls.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}
