package engine

import (
	"math"
	"sync"
	"time"

	"pump_bot/internal/models"
)

// Phase — в каком состоянии символ. Окно и позиция взаимоисключающие:
// окно живёт только в PhaseIdle, позиция — в PhasePositioned/PhaseExiting.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseIdle
	PhaseEntering
	PhasePositioned
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEntering:
		return "entering"
	case PhasePositioned:
		return "positioned"
	case PhaseExiting:
		return "exiting"
	default:
		return "none"
	}
}

type symbolState interface {
	phase() Phase
}

type idleState struct{ window *priceWindow }

// enteringState — Buy ушёл в исполнитель, ждём подтверждения.
type enteringState struct {
	price float64
	since int64
}

type positionedState struct{ pos models.Position }

// exitingState — Sell ушёл в исполнитель, позиция ещё числится открытой.
type exitingState struct{ pos models.Position }

func (*idleState) phase() Phase       { return PhaseIdle }
func (*enteringState) phase() Phase   { return PhaseEntering }
func (*positionedState) phase() Phase { return PhasePositioned }
func (*exitingState) phase() Phase    { return PhaseExiting }

// RuntimeConfig — ключи биржи, чат оператора и текущий размер сделки.
type RuntimeConfig struct {
	APIKey      string
	APISecret   string
	ChatID      int64
	TradeAmount float64
}

// Stats — сводка для health/статуса, без внутренностей.
type Stats struct {
	Symbols      int
	Windows      int
	Positions    int
	InFlight     int
	ClosedTrades int
	Running      bool
}

// State — всё изменяемое состояние торговли под одним мьютексом.
// Внутри критических секций только вычисления: никаких сетевых вызовов, логов и диска.
type State struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	symbols map[string]symbolState
	closed  []models.ClosedTrade
	runtime RuntimeConfig

	running        bool
	awaitingAmount bool
}

func NewState(cfg Config, rc RuntimeConfig) *State {
	return &State{
		cfg:     cfg,
		now:     time.Now,
		symbols: make(map[string]symbolState),
		closed:  make([]models.ClosedTrade, 0),
		runtime: rc,
	}
}

func (s *State) Config() Config { return s.cfg }

// TryDetect прогоняет тик через детектор. Возвращает действие, если сработал
// вход (Buy) или трейлинг-стоп (Sell).
func (s *State) TryDetect(symbol string, price float64) (models.TradeAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return models.TradeAction{}, false
	}
	now := s.now().Unix()

	var w *priceWindow
	switch st := s.symbols[symbol].(type) {
	case *positionedState:
		if !trailingStopHit(&st.pos, price, s.cfg) {
			return models.TradeAction{}, false
		}
		s.symbols[symbol] = &exitingState{pos: st.pos}
		return models.NewSell(symbol, price, st.pos.Quantity, st.pos.EntryPrice), true
	case *enteringState, *exitingState:
		// ордер в полёте — тики по символу не трогают состояние
		return models.TradeAction{}, false
	case *idleState:
		w = st.window
	default:
		w = newPriceWindow()
		s.symbols[symbol] = &idleState{window: w}
	}

	if !pumpDetected(w, now, price, s.cfg) {
		return models.TradeAction{}, false
	}
	s.symbols[symbol] = &enteringState{price: price, since: now}
	return models.NewBuy(symbol, price), true
}

// OpenPosition фиксирует позицию после подтверждённой покупки.
// Вторая позиция по тому же символу — дефект, возвращаем ErrPositionExists.
func (s *State) OpenPosition(symbol string, entryPrice, quantity float64) (models.Position, error) {
	if !(entryPrice > 0) || !(quantity > 0) || math.IsInf(entryPrice, 0) || math.IsInf(quantity, 0) {
		return models.Position{}, ErrInvalidPosition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.symbols[symbol].(type) {
	case *positionedState, *exitingState:
		return models.Position{}, ErrPositionExists
	}

	now := s.now()
	pos := models.Position{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		PeakPrice:  entryPrice,
		Quantity:   quantity,
		OpenedAt:   now.Unix(),
		EntryTime:  models.FormatTime(now),
	}
	s.symbols[symbol] = &positionedState{pos: pos}
	return pos, nil
}

// AbortEntry — покупка не прошла. Символ возвращается в холодное состояние,
// окно заново не засеивается.
func (s *State) AbortEntry(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.symbols[symbol].(*enteringState); ok {
		delete(s.symbols, symbol)
	}
}

// ClosePosition убирает позицию после подтверждённой продажи.
func (s *State) ClosePosition(symbol string) (models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.symbols[symbol].(type) {
	case *exitingState:
		delete(s.symbols, symbol)
		return st.pos, nil
	case *positionedState:
		delete(s.symbols, symbol)
		return st.pos, nil
	}
	return models.Position{}, ErrNoPosition
}

// ReleaseExit — продажа не прошла, позиция снова под трейлингом со старым пиком.
func (s *State) ReleaseExit(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.symbols[symbol].(*exitingState); ok {
		s.symbols[symbol] = &positionedState{pos: st.pos}
	}
}

func (s *State) RecordClosedTrade(ct models.ClosedTrade) {
	s.mu.Lock()
	s.closed = append(s.closed, ct)
	s.mu.Unlock()
}

func (s *State) Phase(symbol string) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.symbols[symbol]
	if !ok {
		return PhaseNone
	}
	return st.phase()
}

// WindowLen — сколько цен сейчас в окне символа (0, если окна нет).
func (s *State) WindowLen(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.symbols[symbol].(*idleState); ok {
		return st.window.len()
	}
	return 0
}

// Position возвращает копию открытой позиции.
func (s *State) Position(symbol string) (models.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.symbols[symbol].(type) {
	case *positionedState:
		return st.pos, true
	case *exitingState:
		return st.pos, true
	}
	return models.Position{}, false
}

// Positions — копии открытых позиций (включая те, что сейчас закрываются).
func (s *State) Positions() []models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionsLocked()
}

func (s *State) positionsLocked() []models.Position {
	out := make([]models.Position, 0)
	for _, st := range s.symbols {
		switch v := st.(type) {
		case *positionedState:
			out = append(out, v.pos)
		case *exitingState:
			out = append(out, v.pos)
		}
	}
	return out
}

func (s *State) ClosedTrades() []models.ClosedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ClosedTrade, len(s.closed))
	copy(out, s.closed)
	return out
}

// Snapshot — сериализуемая копия позиций и истории для внешнего хранилища.
func (s *State) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.Snapshot{
		Positions:    make(map[string]models.Position),
		ClosedTrades: make([]models.ClosedTrade, len(s.closed)),
	}
	for _, p := range s.positionsLocked() {
		snap.Positions[p.Symbol] = p
	}
	copy(snap.ClosedTrades, s.closed)
	return snap
}

// Restore поднимает позиции и историю из хранилища. Окна по этим символам выкидываются.
func (s *State) Restore(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sym, p := range snap.Positions {
		if p.Symbol == "" {
			p.Symbol = sym
		}
		if p.PeakPrice < p.EntryPrice {
			p.PeakPrice = p.EntryPrice
		}
		s.symbols[sym] = &positionedState{pos: p}
	}
	s.closed = append(make([]models.ClosedTrade, 0, len(snap.ClosedTrades)), snap.ClosedTrades...)
}

func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Symbols:      len(s.symbols),
		ClosedTrades: len(s.closed),
		Running:      s.running,
	}
	for _, v := range s.symbols {
		switch v.(type) {
		case *idleState:
			st.Windows++
		case *positionedState:
			st.Positions++
		case *exitingState:
			st.Positions++
			st.InFlight++
		case *enteringState:
			st.InFlight++
		}
	}
	return st
}

// ----- флаги и настройки оператора -----

func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *State) SetRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *State) AwaitingAmount() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingAmount
}

func (s *State) SetAwaitingAmount(v bool) {
	s.mu.Lock()
	s.awaitingAmount = v
	s.mu.Unlock()
}

func (s *State) TradeAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtime.TradeAmount
}

func (s *State) SetTradeAmount(amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	s.runtime.TradeAmount = amount
	s.mu.Unlock()
	return nil
}

// Engage — ответ оператора на запрос суммы: сумма, снять ожидание и включить детектор
// одной критической секцией.
func (s *State) Engage(amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	s.runtime.TradeAmount = amount
	s.awaitingAmount = false
	s.running = true
	s.mu.Unlock()
	return nil
}

// RuntimeConfig возвращает копию: её можно держать во время сетевых вызовов.
func (s *State) RuntimeConfig() RuntimeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtime
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
