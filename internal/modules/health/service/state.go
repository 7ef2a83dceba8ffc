package service

import (
	"sync/atomic"
	"time"
)

// State — то, что видят /readyz и /healthz. Пишут шарды и main, читает HTTP.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	shardsTotal     atomic.Int32
	shardsConnected atomic.Int32
	lastTickUnix    atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetShardsTotal(n int) { s.shardsTotal.Store(int32(n)) }
func (s *State) ShardsTotal() int     { return int(s.shardsTotal.Load()) }

func (s *State) ShardUp()             { s.shardsConnected.Add(1) }
func (s *State) ShardDown()           { s.shardsConnected.Add(-1) }
func (s *State) ShardsConnected() int { return int(s.shardsConnected.Load()) }
func (s *State) WSConnected() bool    { return s.shardsConnected.Load() > 0 }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
