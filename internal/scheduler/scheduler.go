// Package scheduler runs search cycles on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"flight_monitor/internal/monitor"
)

// Runner runs one search cycle.
type Runner interface {
	RunCycle(ctx context.Context) (monitor.Summary, error)
}

// Scheduler periodically runs search cycles.
type Scheduler struct {
	runner  Runner
	log     *slog.Logger
	tick    time.Duration
	trigger chan struct{}
}

// New creates a Scheduler that runs a cycle every interval.
func New(runner Runner, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		runner:  runner,
		log:     log,
		tick:    interval,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate cycle. It returns false if a request is
// already pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.log.Info("manual cycle requested")
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, err := s.runner.RunCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, monitor.ErrBusy):
		s.log.Info("cycle skipped, previous one still running")
	case ctx.Err() != nil:
		s.log.Debug("cycle cancelled")
	default:
		s.log.Error("run cycle", "error", err)
	}
}
