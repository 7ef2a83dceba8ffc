package models

// Snapshot — то, что уходит во внешнее хранилище после каждого open/close.
// Ключи Positions совпадают с символами.
type Snapshot struct {
	Positions    map[string]Position `json:"active_trades" yaml:"active_trades"`
	ClosedTrades []ClosedTrade       `json:"closed_trades" yaml:"closed_trades"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{
		Positions:    make(map[string]Position),
		ClosedTrades: []ClosedTrade{},
	}
}
