package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/go-slackpurge/internal/jobs"
	"github.com/jmylchreest/go-slackpurge/internal/purge"
)

func TestConsoleReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Report("main", purge.Outcome{Item: "F1", State: purge.StateSucceeded})
	c.Report("main", purge.Outcome{Item: "F2", State: purge.StateFailed, Err: errors.New("files.delete: HTTP 500")})

	assert.Equal(t,
		"[main] deleted file F1\n"+
			"[main] error deleting file F2: files.delete: HTTP 500\n",
		buf.String())
}

func TestConsoleSummary(t *testing.T) {
	tests := []struct {
		name  string
		stats *jobs.CycleStats
		want  string
	}{
		{
			name:  "nothing found",
			stats: &jobs.CycleStats{},
			want:  "nothing to delete\n",
		},
		{
			name: "partial failure",
			stats: &jobs.CycleStats{
				ItemsFound:   map[string]int{"purge:a": 3},
				ItemsDeleted: map[string]int{"purge:a": 2},
				ItemsFailed:  map[string]int{"purge:a": 1},
			},
			want: "found 3, deleted 2, failed 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).Summary(tt.stats)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestConsoleIssues(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Issues([]string{"argument must be a positive integer", "SLACK_AUTH_TOKEN is not set"})

	assert.Equal(t,
		"please address the following issues:\n"+
			"- argument must be a positive integer\n"+
			"- SLACK_AUTH_TOKEN is not set\n",
		buf.String())
}
