package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/models"
	"pump_bot/pkg/db"
)

type batchResults struct{ pgx.BatchResults }

func (batchResults) Close() error { return nil }

// recordingTx пишет, что ушло в транзакцию. Остальные методы pgx.Tx не нужны.
type recordingTx struct {
	pgx.Tx
	batches []*pgx.Batch
}

func (r *recordingTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (r *recordingTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	r.batches = append(r.batches, b)
	return batchResults{}
}

func (r *recordingTx) tradeInserts(batch int) []string {
	var ids []string
	for _, q := range r.batches[batch].QueuedQueries {
		if strings.Contains(q.SQL, "closed_trades") {
			ids = append(ids, q.Arguments[0].(string))
		}
	}
	return ids
}

type fakeTxManager struct {
	tx      *recordingTx
	failing bool
}

func (f *fakeTxManager) RunMaster(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if f.failing {
		return errors.New("conn reset")
	}
	return fn(ctx, f.tx)
}

func (f *fakeTxManager) Conn() db.Transaction { return nil }

func TestPostgresSave_InsertsOnlyNewTrades(t *testing.T) {
	tm := &fakeTxManager{tx: &recordingTx{}}
	pg := NewPostgres(tm)
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, pg.Save(ctx, snap))
	assert.Equal(t, []string{"a", "b"}, tm.tx.tradeInserts(0))

	snap.ClosedTrades = append(snap.ClosedTrades, models.ClosedTrade{ID: "c", Symbol: "ZUSDT", CloseTime: "x"})
	require.NoError(t, pg.Save(ctx, snap))
	assert.Equal(t, []string{"c"}, tm.tx.tradeInserts(1))

	// позиции переписываются каждый раз
	require.NoError(t, pg.Save(ctx, snap))
	require.Len(t, tm.tx.batches, 3)
	assert.Empty(t, tm.tx.tradeInserts(2))
	assert.Len(t, tm.tx.batches[2].QueuedQueries, 1)
}

func TestPostgresSave_FailedSaveResendsTail(t *testing.T) {
	tm := &fakeTxManager{tx: &recordingTx{}}
	pg := NewPostgres(tm)
	ctx := context.Background()

	snap := sampleSnapshot()
	tm.failing = true
	require.Error(t, pg.Save(ctx, snap))

	tm.failing = false
	require.NoError(t, pg.Save(ctx, snap))
	assert.Equal(t, []string{"a", "b"}, tm.tx.tradeInserts(0))
}

func TestPendingTrades(t *testing.T) {
	all := sampleSnapshot().ClosedTrades
	assert.Len(t, pendingTrades(all, 0), 2)
	assert.Len(t, pendingTrades(all, 1), 1)
	assert.Empty(t, pendingTrades(all, 2))
	assert.Len(t, pendingTrades(all, 5), 2)
}
