package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CycleStats tracks statistics for a single execution cycle
type CycleStats struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	JobsRun      int
	JobsFailed   int
	ItemsFound   map[string]int // job name -> files found
	ItemsDeleted map[string]int // job name -> files deleted
	ItemsFailed  map[string]int // job name -> failed deletes
	Errors       []string
}

// Totals sums the per-job counters
func (s *CycleStats) Totals() JobStats {
	var t JobStats
	for _, v := range s.ItemsFound {
		t.Found += v
	}
	for _, v := range s.ItemsDeleted {
		t.Deleted += v
	}
	for _, v := range s.ItemsFailed {
		t.Failed += v
	}
	return t
}

type closer interface {
	Close()
}

// Manager runs every registered job once per cycle and keeps going when one fails
type Manager struct {
	logger    *slog.Logger
	jobs      []Job
	notifiers []Notifier
	closers   map[string]closer
	mu        sync.RWMutex
	lastStats *CycleStats
}

// NewManager creates a new job manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger:  logger.With("component", "job_manager"),
		jobs:    make([]Job, 0),
		closers: make(map[string]closer),
	}
}

// RegisterJob adds a job to the manager's execution list
func (m *Manager) RegisterJob(job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = append(m.jobs, job)
	m.logger.Info("registered job", "job", job.Name())
}

// RegisterNotifier adds a notifier that receives each cycle summary
func (m *Manager) RegisterNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifiers = append(m.notifiers, n)
	m.logger.Info("registered notifier", "notifier", n.Name())
}

// RegisterCloser adds a resource released by Close
func (m *Manager) RegisterCloser(name string, c closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closers[name] = c
}

// RunAll executes all enabled jobs - GRACEFUL: continues on error
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.RLock()
	jobs := m.jobs
	notifiers := m.notifiers
	m.mu.RUnlock()

	stats := &CycleStats{
		StartTime:    time.Now(),
		ItemsFound:   make(map[string]int),
		ItemsDeleted: make(map[string]int),
		ItemsFailed:  make(map[string]int),
		Errors:       make([]string, 0),
	}

	var failedJobs []string

	for _, job := range jobs {
		if !job.Enabled() {
			m.logger.Debug("skipping disabled job", "job", job.Name())
			continue
		}

		m.logger.Info("running job", "job", job.Name())
		stats.JobsRun++

		if err := job.Run(ctx); err != nil {
			m.logger.Error("job failed, continuing", "job", job.Name(), "error", err)
			failedJobs = append(failedJobs, job.Name())
			stats.JobsFailed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", job.Name(), err))
		} else {
			m.logger.Info("job completed successfully", "job", job.Name())
		}

		if sj, ok := job.(StatsJob); ok {
			jobStats := sj.Stats()
			stats.ItemsFound[job.Name()] = jobStats.Found
			stats.ItemsDeleted[job.Name()] = jobStats.Deleted
			stats.ItemsFailed[job.Name()] = jobStats.Failed
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	m.mu.Lock()
	m.lastStats = stats
	m.mu.Unlock()

	m.logCycleSummary(stats)

	for _, n := range notifiers {
		if err := n.Notify(ctx, stats); err != nil {
			m.logger.Warn("notifier failed", "notifier", n.Name(), "error", err)
		}
	}

	if len(failedJobs) > 0 {
		return fmt.Errorf("%d jobs failed: %v", len(failedJobs), failedJobs)
	}

	return nil
}

// JobResult represents the result of a single job for structured logging
type JobResult struct {
	Found   int `json:"found"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// logCycleSummary outputs a summary of the execution cycle as structured log
func (m *Manager) logCycleSummary(stats *CycleStats) {
	totals := stats.Totals()

	jobResults := make(map[string]JobResult)
	for jobName, found := range stats.ItemsFound {
		if found > 0 {
			jobResults[jobName] = JobResult{
				Found:   found,
				Deleted: stats.ItemsDeleted[jobName],
				Failed:  stats.ItemsFailed[jobName],
			}
		}
	}

	m.logger.Info("cycle complete",
		slog.Group("cycle",
			slog.Duration("duration", stats.Duration.Round(time.Millisecond)),
			slog.Int("jobs_run", stats.JobsRun),
			slog.Int("jobs_failed", stats.JobsFailed),
		),
		slog.Group("totals",
			slog.Int("found", totals.Found),
			slog.Int("deleted", totals.Deleted),
			slog.Int("failed", totals.Failed),
		),
		slog.Any("jobs", jobResults),
	)

	if len(stats.Errors) > 0 {
		m.logger.Warn("cycle errors",
			slog.Int("count", len(stats.Errors)),
			slog.Any("errors", stats.Errors),
		)
	}
}

// GetLastStats returns the statistics from the last execution cycle
func (m *Manager) GetLastStats() *CycleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStats
}

// Close cleans up all resources
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.closers {
		c.Close()
		m.logger.Debug("closed client", "name", name)
	}

	m.logger.Info("job manager closed")
}
