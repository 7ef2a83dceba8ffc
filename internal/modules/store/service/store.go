package service

import (
	"context"

	"github.com/google/uuid"

	"pump_bot/internal/models"
)

// Store — внешнее хранилище позиций и истории сделок.
// Ключи Positions совпадают с символами, порядок ClosedTrades сохраняется.
type Store interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

func normalize(snap models.Snapshot) models.Snapshot {
	if snap.Positions == nil {
		snap.Positions = make(map[string]models.Position)
	}
	if snap.ClosedTrades == nil {
		snap.ClosedTrades = []models.ClosedTrade{}
	}
	return snap
}

// fillTradeIDs выдаёт id сделкам из старых файлов, где его не было.
func fillTradeIDs(trades []models.ClosedTrade) {
	for i := range trades {
		if trades[i].ID == "" {
			trades[i].ID = uuid.NewString()
		}
	}
}
