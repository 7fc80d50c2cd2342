// Package scheduler runs the fixed-cadence system jobs registered once at
// boot: the trigger poll tick, nightly insight generation, and the
// optimization sweep. These are static cron patterns, not per-user triggers;
// per-user schedule matching lives in pkg/triggers/schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/aurelia-hq/strand/pkg/log"
)

// Cadences for the built-in system jobs.
const (
	PollTickSpec          = "@every 60s"
	NightlyInsightsSpec   = "30 2 * * *"
	OptimizationSweepSpec = "0 4 * * 0"
)

// Job is one system job body. Errors are logged, never fatal: a failing
// sweep must not take the scheduler down.
type Job func(ctx context.Context) error

// Scheduler owns the cron runner. Jobs are skipped while a previous tick of
// the same job is still running, and panics are recovered.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New() *Scheduler {
	logger := log.WithModule("scheduler")
	cronLogger := slogAdapter{logger: logger}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		logger: logger,
	}
}

// Register adds a named job at the given cron spec. The job receives ctx so
// it stops cleanly on shutdown.
func (s *Scheduler) Register(ctx context.Context, spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("System job tick", "job", name)

		if err := job(ctx); err != nil {
			s.logger.Error("System job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register job %q with spec %q: %w", name, spec, err)
	}

	s.logger.Info("System job registered", "job", name, "spec", spec)

	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// slogAdapter satisfies the cron logger contract on top of slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Info(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
