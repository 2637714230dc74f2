package purge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
)

// Operation performs the side effect for one item. Returning an error marks only that
// item as failed.
type Operation func(ctx context.Context, id ItemID) error

type runOptions struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures Run
type Option func(*runOptions)

// WithTimeout bounds each operation individually. A timed out operation is reported as a
// failure for its item; the batch carries on.
func WithTimeout(d time.Duration) Option {
	return func(o *runOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger used for per-item debug output
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes op for every item with at most concurrency operations in flight.
//
// Items are admitted one at a time as slots free up, so a slow operation holds only its
// own slot. Every item produces exactly one Outcome on the returned channel, in
// completion order, and the channel is closed once the last outcome has been sent.
// Invalid arguments are reported before anything is dispatched.
func Run(ctx context.Context, items []ItemID, concurrency int, op Operation, opts ...Option) (<-chan Outcome, error) {
	if concurrency < 1 {
		return nil, errs.Newf(errs.CodeInvalidArgument, "run", "concurrency must be at least 1, got %d", concurrency)
	}
	if op == nil {
		return nil, errs.New(errs.CodeInvalidArgument, "run", "operation is required")
	}

	o := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	out := make(chan Outcome, concurrency)

	go func() {
		defer close(out)

		p := pool.New().WithMaxGoroutines(concurrency)
		for _, id := range items {
			// blocks while all slots are busy
			p.Go(func() {
				out <- execute(ctx, id, op, o)
			})
		}
		p.Wait()

		o.logger.Debug("batch drained", "items", len(items), "concurrency", concurrency)
	}()

	return out, nil
}

func execute(ctx context.Context, id ItemID, op Operation, o runOptions) (outcome Outcome) {
	outcome = Outcome{Item: id, State: StateInFlight}

	defer func() {
		if r := recover(); r != nil {
			outcome.State = StateFailed
			outcome.Err = fmt.Errorf("operation panicked: %v", r)
		}
		o.logger.Debug("item finished", "item", string(id), "state", outcome.State.String())
	}()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := op(ctx, id); err != nil {
		outcome.State = StateFailed
		outcome.Err = err
		return outcome
	}

	outcome.State = StateSucceeded
	return outcome
}
