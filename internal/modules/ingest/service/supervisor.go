package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pump_bot/pkg/logger"
)

// Runner — то, что умеет крутиться до отмены ctx (Shard или фейк в тестах).
type Runner interface {
	Run(ctx context.Context) error
}

// Supervisor запускает шарды с небольшим разнесением по времени и перезапускает
// упавшие. Ошибка или паника одного шарда не трогает остальные.
type Supervisor struct {
	runners      []Runner
	stagger      time.Duration
	restartDelay time.Duration
}

func NewSupervisor(runners []Runner, stagger, restartDelay time.Duration) *Supervisor {
	if restartDelay <= 0 {
		restartDelay = time.Second
	}
	return &Supervisor{
		runners:      runners,
		stagger:      stagger,
		restartDelay: restartDelay,
	}
}

func (s *Supervisor) Len() int { return len(s.runners) }

// Run блокируется до отмены ctx.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i, r := range s.runners {
		id, r := i, r
		g.Go(func() error {
			s.supervise(gctx, id, r)
			return nil
		})
		if s.stagger > 0 && i < len(s.runners)-1 {
			t := time.NewTimer(s.stagger)
			select {
			case <-ctx.Done():
				t.Stop()
				return g.Wait()
			case <-t.C:
			}
		}
	}
	return g.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, id int, r Runner) {
	for {
		err := runSafe(ctx, r)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("[WS] shard %d stopped: %v, restarting", id, err)
		}

		t := time.NewTimer(s.restartDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func runSafe(ctx context.Context, r Runner) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Run(ctx)
}
