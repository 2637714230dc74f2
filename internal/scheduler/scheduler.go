// Package scheduler runs the purge cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Parser accepts an optional leading seconds field and the usual @descriptors
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether spec is a usable schedule
func Validate(spec string) error {
	if _, err := Parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a stopped scheduler
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
	}
}

// AddJob registers job to run on spec. Each run gets ctx.
func (s *Scheduler) AddJob(ctx context.Context, spec string, name string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("scheduled run starting", "job", name)
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled run failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	s.logger.Info("scheduled job", "job", name, "schedule", spec)
	return nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
