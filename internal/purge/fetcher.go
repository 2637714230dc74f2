package purge

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/internal/slackapi"
)

// FileLister is the listing half of the remote API
type FileLister interface {
	ListFiles(ctx context.Context, before time.Time) ([]slackapi.File, error)
}

// Fetcher resolves a cutoff in days into the IDs of files created before it
type Fetcher struct {
	lister FileLister
	now    func() time.Time
	logger *slog.Logger
}

// NewFetcher creates a Fetcher backed by lister
func NewFetcher(lister FileLister, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		lister: lister,
		now:    time.Now,
		logger: logger,
	}
}

// Cutoff returns the instant cutoffDays calendar days before now
func (f *Fetcher) Cutoff(cutoffDays int) time.Time {
	return f.now().AddDate(0, 0, -cutoffDays)
}

// Fetch lists files older than cutoffDays and returns their IDs in the order the service
// returned them. It issues exactly one request and never returns a partial list.
func (f *Fetcher) Fetch(ctx context.Context, cutoffDays int) ([]ItemID, error) {
	if cutoffDays < 0 {
		return nil, errs.Newf(errs.CodeInvalidArgument, "fetch", "cutoff days must not be negative, got %d", cutoffDays)
	}

	cutoff := f.Cutoff(cutoffDays)
	f.logger.DebugContext(ctx, "listing files", "days", cutoffDays, "cutoff", cutoff.UTC().Format(time.RFC3339))

	files, err := f.lister.ListFiles(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	ids := make([]ItemID, 0, len(files))
	for _, file := range files {
		ids = append(ids, ItemID(file.ID))
	}
	return ids, nil
}

// ParseDays validates a day count given as text. Only plain decimal digits are accepted.
func ParseDays(s string) (int, error) {
	if s == "" {
		return 0, errs.New(errs.CodeInvalidArgument, "days", "argument must be a positive integer")
	}

	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errs.Newf(errs.CodeInvalidArgument, "days", "argument must be a positive integer, got %q", s)
		}
		n = n*10 + int(r-'0')
		if n > maxDays {
			return 0, errs.Newf(errs.CodeInvalidArgument, "days", "argument must not exceed %d", maxDays)
		}
	}
	return n, nil
}

// keeps the computed cutoff well inside time.Time's range
const maxDays = 100000
