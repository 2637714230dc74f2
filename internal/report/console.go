// Package report renders purge outcomes for a human reading the terminal.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/jmylchreest/go-slackpurge/internal/jobs"
	"github.com/jmylchreest/go-slackpurge/internal/purge"
)

// Console writes one line per outcome. It is safe for concurrent use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a Console writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Report implements purge.Reporter
func (c *Console) Report(workspace string, o purge.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.Succeeded() {
		_, _ = fmt.Fprintf(c.out, "[%s] deleted file %s\n", workspace, o.Item)
		return
	}
	_, _ = fmt.Fprintf(c.out, "[%s] error deleting file %s: %s\n", workspace, o.Item, o.Reason())
}

// Summary writes the cycle totals
func (c *Console) Summary(stats *jobs.CycleStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := stats.Totals()
	if t.Found == 0 {
		_, _ = fmt.Fprintln(c.out, "nothing to delete")
		return
	}
	_, _ = fmt.Fprintf(c.out, "found %d, deleted %d, failed %d\n", t.Found, t.Deleted, t.Failed)
}

// Issues writes a pre-flight failure list, one line per problem
func (c *Console) Issues(problems []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintln(c.out, "please address the following issues:")
	for _, p := range problems {
		_, _ = fmt.Fprintf(c.out, "- %s\n", p)
	}
}
