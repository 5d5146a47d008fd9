// Package scheduler owns the main loop: periodic scan sweeps on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is one scan sweep over all tracked sites. *scanner.Scanner
// implements it.
type Runner interface {
	ScanAll(ctx context.Context) error
}

// Scheduler wraps robfig/cron around a Runner.
type Scheduler struct {
	runner Runner
	spec   string // cron spec, e.g. "@every 6h" or "0 7 * * *"
	logger *slog.Logger
}

// New creates a scheduler firing on spec.
func New(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{runner: runner, spec: spec, logger: logger}
}

// NewInterval creates a scheduler firing every interval.
func NewInterval(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return New(runner, fmt.Sprintf("@every %s", interval), logger)
}

// Run starts the loop: one immediate sweep, then sweeps per the schedule.
// A sweep still in flight when the next tick fires is not doubled; the tick
// is skipped. Returns nil when ctx is cancelled (graceful shutdown), after
// any in-flight sweep finished.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(s.spec, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)

	s.sweep(ctx)
	c.Start()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.runner.ScanAll(ctx); err != nil {
		s.logger.Error("scan sweep failed", "error", err)
	}
}
