package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/pkg/db"
	"pump_bot/pkg/logger"
)

// Нужен живой postgres: PUMP_TEST_DSN=postgres://... go test ./...
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("PUMP_TEST_DSN")
	if dsn == "" {
		t.Skip("PUMP_TEST_DSN is not set")
	}
	logger.InitNop()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	tm := db.NewPgTxManager(pool)
	defer tm.Close()

	pg := NewPostgres(tm)
	require.NoError(t, pg.Migrate(ctx))
	_, err = tm.Conn().Exec(ctx, `TRUNCATE positions, closed_trades`)
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, pg.Save(ctx, want))
	// повторное сохранение не дублирует историю
	require.NoError(t, pg.Save(ctx, want))

	got, err := pg.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
