package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"pump_bot/internal/models"
	"pump_bot/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	symbol      TEXT PRIMARY KEY,
	entry_price DOUBLE PRECISION NOT NULL,
	peak_price  DOUBLE PRECISION NOT NULL,
	quantity    DOUBLE PRECISION NOT NULL,
	opened_at   BIGINT NOT NULL,
	entry_time  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS closed_trades (
	seq          BIGSERIAL PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	symbol       TEXT NOT NULL,
	pnl_percent  DOUBLE PRECISION NOT NULL,
	profit_usdt  DOUBLE PRECISION NOT NULL,
	close_time   TEXT NOT NULL
);`

// Postgres — тот же снапшот в двух таблицах. Save заменяет позиции целиком
// и дописывает новые закрытые сделки в одной транзакции.
type Postgres struct {
	db db.TxManager

	mu sync.Mutex
	// сколько закрытых сделок из начала истории уже лежит в таблице
	savedTrades int
}

func NewPostgres(tm db.TxManager) *Postgres {
	return &Postgres{db: tm}
}

// Migrate создаёт таблицы, если их нет.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.Conn().Exec(ctx, schema)
	return errors.Wrap(err, "store.Migrate")
}

func (p *Postgres) Load(ctx context.Context) (snap models.Snapshot, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Load: %w", err)
		}
	}()
	snap = models.EmptySnapshot()

	rows, err := p.db.Conn().Query(ctx,
		`SELECT symbol, entry_price, peak_price, quantity, opened_at, entry_time FROM positions`)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var pos models.Position
		if err = rows.Scan(&pos.Symbol, &pos.EntryPrice, &pos.PeakPrice, &pos.Quantity, &pos.OpenedAt, &pos.EntryTime); err != nil {
			rows.Close()
			return snap, err
		}
		snap.Positions[pos.Symbol] = pos
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return snap, err
	}

	rows, err = p.db.Conn().Query(ctx,
		`SELECT id, symbol, pnl_percent, profit_usdt, close_time FROM closed_trades ORDER BY seq`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var ct models.ClosedTrade
		if err = rows.Scan(&ct.ID, &ct.Symbol, &ct.PnLPercent, &ct.ProfitQuote, &ct.CloseTime); err != nil {
			return snap, err
		}
		snap.ClosedTrades = append(snap.ClosedTrades, ct)
	}
	if err = rows.Err(); err != nil {
		return snap, err
	}

	p.mu.Lock()
	p.savedTrades = len(snap.ClosedTrades)
	p.mu.Unlock()
	return snap, nil
}

func (p *Postgres) Save(ctx context.Context, snap models.Snapshot) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Save: %w", err)
		}
	}()
	snap = normalize(snap)

	p.mu.Lock()
	defer p.mu.Unlock()
	fresh := pendingTrades(snap.ClosedTrades, p.savedTrades)

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, `DELETE FROM positions`); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for sym, pos := range snap.Positions {
			batch.Queue(`INSERT INTO positions (symbol, entry_price, peak_price, quantity, opened_at, entry_time)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				sym, pos.EntryPrice, pos.PeakPrice, pos.Quantity, pos.OpenedAt, pos.EntryTime)
		}
		// история только дописывается: шлём хвост, которого ещё нет в таблице
		for _, ct := range fresh {
			batch.Queue(`INSERT INTO closed_trades (id, symbol, pnl_percent, profit_usdt, close_time)
				VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
				ct.ID, ct.Symbol, ct.PnLPercent, ct.ProfitQuote, ct.CloseTime)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctxTx, batch).Close()
	})
	if err == nil {
		p.savedTrades = len(snap.ClosedTrades)
	}
	return err
}

// pendingTrades — сделки после первых saved. Если история вдруг короче
// сохранённого, отдаём её целиком: ON CONFLICT отсечёт повторы.
func pendingTrades(all []models.ClosedTrade, saved int) []models.ClosedTrade {
	if saved < 0 || saved > len(all) {
		return all
	}
	return all[saved:]
}
