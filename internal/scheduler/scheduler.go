// Package scheduler re-runs whole appointment checks on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/logging"
)

// Scheduler runs Check once immediately and then on every tick. Runs never
// overlap: a tick that fires during a slow run is dropped by the ticker.
type Scheduler struct {
	Check    func(ctx context.Context) appointment.Outcome
	Interval time.Duration
	Logger   *slog.Logger

	// OnOutcome, when set, observes every finished run.
	OnOutcome func(appointment.Outcome)
}

// Run blocks until ctx ends and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	log := logging.OrDefault(s.Logger)
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	log.Info("watch started", "every", s.Interval)

	// kick immediately
	s.tick(ctx, log, 1)

	for run := 2; ; run++ {
		select {
		case <-ctx.Done():
			log.Info("watch stopped", "runs", run-1)
			return ctx.Err()
		case <-t.C:
			s.tick(ctx, log, run)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log *slog.Logger, run int) {
	if ctx.Err() != nil {
		return
	}
	out := s.Check(ctx)
	if out.Succeeded() {
		log.Info("check finished", "run", run, "result", out.Message())
	} else {
		log.Warn("check failed", "run", run, "err", out.Err())
	}
	if s.OnOutcome != nil {
		s.OnOutcome(out)
	}
}
