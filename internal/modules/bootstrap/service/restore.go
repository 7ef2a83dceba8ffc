package service

import (
	"context"

	"github.com/pkg/errors"

	"pump_bot/internal/engine"
	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

// Loader — источник последнего снимка (файл или postgres).
type Loader interface {
	Load(ctx context.Context) (models.Snapshot, error)
}

// Restorer поднимает позиции и историю до того, как пойдут тики.
type Restorer struct {
	store Loader
	state *engine.State
}

func NewRestorer(store Loader, state *engine.State) *Restorer {
	return &Restorer{store: store, state: state}
}

func (r *Restorer) Restore(ctx context.Context) error {
	snap, err := r.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "restore snapshot")
	}
	r.state.Restore(snap)

	st := r.state.Stats()
	metrics.OpenPositions.Set(float64(st.Positions))
	logger.Info("[BOOT] restored %d positions, %d closed trades", st.Positions, st.ClosedTrades)
	return nil
}
