package purge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/internal/jobs"
)

// FileDeleter is the delete half of the remote API
type FileDeleter interface {
	DeleteFile(ctx context.Context, fileID string) error
}

// API is everything a purge job needs from a workspace client
type API interface {
	FileLister
	FileDeleter
}

// Reporter receives each outcome as soon as it is known
type Reporter interface {
	Report(workspace string, o Outcome)
}

// JobConfig holds the effective settings for one workspace
type JobConfig struct {
	Workspace     string
	Enabled       bool
	Days          int
	Concurrency   int
	DeleteTimeout time.Duration
	TestRun       bool
}

// Job deletes files older than the configured age from one workspace
type Job struct {
	name     string
	cfg      JobConfig
	api      API
	fetcher  *Fetcher
	reporter Reporter
	logger   *slog.Logger

	mu          sync.RWMutex
	lastFound   int
	lastDeleted int
	lastFailed  int
}

// NewJob creates a purge job for one workspace
func NewJob(cfg JobConfig, api API, reporter Reporter, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job", "purge", "workspace", cfg.Workspace)

	return &Job{
		name:     "purge:" + cfg.Workspace,
		cfg:      cfg,
		api:      api,
		fetcher:  NewFetcher(api, logger),
		reporter: reporter,
		logger:   logger,
	}
}

// Name returns the job identifier
func (j *Job) Name() string {
	return j.name
}

// Enabled returns whether the job is enabled
func (j *Job) Enabled() bool {
	return j.cfg.Enabled
}

// Run lists old files and deletes them. Listing failures abort the run; individual
// delete failures are reported and counted but never returned.
func (j *Job) Run(ctx context.Context) error {
	j.logger.Info("retrieving files", "older_than_days", j.cfg.Days, "test_run", j.cfg.TestRun)

	ids, err := j.fetcher.Fetch(ctx, j.cfg.Days)
	if err != nil {
		j.setStats(0, 0, 0)
		return fmt.Errorf("list files: %w", err)
	}

	if len(ids) == 0 {
		j.logger.Info("nothing to delete")
		j.setStats(0, 0, 0)
		return nil
	}

	if j.cfg.TestRun {
		for _, id := range ids {
			j.logger.Info("[TEST RUN] would delete file", "file", string(id))
		}
		j.setStats(len(ids), 0, 0)
		return nil
	}

	j.logger.Info("deleting files", "count", len(ids), "concurrency", j.cfg.Concurrency)

	outcomes, err := Run(ctx, ids, j.cfg.Concurrency, j.deleteFile,
		WithTimeout(j.cfg.DeleteTimeout),
		WithLogger(j.logger),
	)
	if err != nil {
		j.setStats(len(ids), 0, 0)
		return fmt.Errorf("start batch: %w", err)
	}

	done := make([]Outcome, 0, len(ids))
	for o := range outcomes {
		if o.Succeeded() {
			j.logger.Debug("file deleted", "file", string(o.Item))
		} else {
			j.logger.Warn("error deleting file", "file", string(o.Item), "code", errs.CodeOf(o.Err), "error", o.Err)
		}
		if j.reporter != nil {
			j.reporter.Report(j.cfg.Workspace, o)
		}
		done = append(done, o)
	}
	summary := Tally(done)

	j.logger.Info("purge completed",
		"found", len(ids),
		"deleted", summary.Succeeded,
		"failed", summary.Failed,
	)
	j.setStats(len(ids), summary.Succeeded, summary.Failed)

	return nil
}

func (j *Job) deleteFile(ctx context.Context, id ItemID) error {
	return j.api.DeleteFile(ctx, string(id))
}

func (j *Job) setStats(found, deleted, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastFound = found
	j.lastDeleted = deleted
	j.lastFailed = failed
}

// Stats returns the statistics from the last job run
func (j *Job) Stats() jobs.JobStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return jobs.JobStats{
		Found:   j.lastFound,
		Deleted: j.lastDeleted,
		Failed:  j.lastFailed,
	}
}
