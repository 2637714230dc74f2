package purge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/internal/jobs"
	"github.com/jmylchreest/go-slackpurge/internal/slackapi"
)

type fakeAPI struct {
	fakeLister
	mu       sync.Mutex
	deleted  []string
	failures map[string]error
}

func (f *fakeAPI) DeleteFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return f.failures[fileID]
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recordingReporter) Report(workspace string, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJobNameAndEnabled(t *testing.T) {
	job := NewJob(JobConfig{Workspace: "main", Enabled: true}, &fakeAPI{}, nil, discardLogger())

	assert.Equal(t, "purge:main", job.Name())
	assert.True(t, job.Enabled())

	var _ jobs.StatsJob = job
}

func TestJobRun(t *testing.T) {
	api := &fakeAPI{
		fakeLister: fakeLister{files: []slackapi.File{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
		failures:   map[string]error{"b": errors.New("server error")},
	}
	reporter := &recordingReporter{}

	job := NewJob(JobConfig{Workspace: "main", Enabled: true, Days: 30, Concurrency: 2}, api, reporter, discardLogger())
	require.NoError(t, job.Run(context.Background()))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, api.deleted)
	assert.Len(t, reporter.outcomes, 3)
	assert.Equal(t, jobs.JobStats{Found: 3, Deleted: 2, Failed: 1}, job.Stats())
}

func TestJobRunNothingToDelete(t *testing.T) {
	api := &fakeAPI{fakeLister: fakeLister{files: []slackapi.File{}}}

	job := NewJob(JobConfig{Workspace: "main", Enabled: true, Days: 30, Concurrency: 10}, api, nil, discardLogger())
	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, api.deleted)
	assert.Equal(t, jobs.JobStats{}, job.Stats())
}

func TestJobRunTestModeDeletesNothing(t *testing.T) {
	api := &fakeAPI{fakeLister: fakeLister{files: []slackapi.File{{ID: "a"}, {ID: "b"}}}}
	reporter := &recordingReporter{}

	job := NewJob(JobConfig{Workspace: "main", Enabled: true, Days: 30, Concurrency: 10, TestRun: true}, api, reporter, discardLogger())
	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, api.deleted)
	assert.Empty(t, reporter.outcomes)
	assert.Equal(t, jobs.JobStats{Found: 2}, job.Stats())
}

func TestJobRunListingFailureIsFatal(t *testing.T) {
	api := &fakeAPI{fakeLister: fakeLister{err: errs.New(errs.CodeParse, "files.list", "response has no files field")}}

	job := NewJob(JobConfig{Workspace: "main", Enabled: true, Days: 30, Concurrency: 10}, api, nil, discardLogger())
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeParse))
	assert.Empty(t, api.deleted)
}

func TestJobRunInvalidConcurrency(t *testing.T) {
	api := &fakeAPI{fakeLister: fakeLister{files: []slackapi.File{{ID: "a"}}}}

	job := NewJob(JobConfig{Workspace: "main", Enabled: true, Days: 30, Concurrency: 0}, api, nil, discardLogger())
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeInvalidArgument))
	assert.Empty(t, api.deleted)
}

// End to end against a fake Slack: three old files, the delete for "b" fails server side.
func TestJobRunAgainstSlackServer(t *testing.T) {
	var mu sync.Mutex
	var tsTo string
	deleteCalls := map[string]int{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xoxp-e2e", r.FormValue("token"))

		switch r.URL.Path {
		case "/files.list":
			mu.Lock()
			tsTo = r.FormValue("ts_to")
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"files":[{"id":"a"},{"id":"b"},{"id":"c"}]}`))
		case "/files.delete":
			assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
			id := r.FormValue("file")
			mu.Lock()
			deleteCalls[id]++
			mu.Unlock()
			if id == "b" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal error"))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := slackapi.NewClient(slackapi.ClientConfig{
		Name:    "e2e",
		BaseURL: server.URL,
		Token:   "xoxp-e2e",
		Timeout: 2 * time.Second,
		Logger:  discardLogger(),
	})
	defer client.Close()

	reporter := &recordingReporter{}
	job := NewJob(JobConfig{Workspace: "e2e", Enabled: true, Days: 30, Concurrency: 10}, client, reporter, discardLogger())

	before := time.Now().AddDate(0, 0, -30).Unix()
	require.NoError(t, job.Run(context.Background()))
	after := time.Now().AddDate(0, 0, -30).Unix()

	require.Len(t, reporter.outcomes, 3)
	summary := Tally(reporter.outcomes)
	assert.Equal(t, Summary{Total: 3, Succeeded: 2, Failed: 1}, summary)

	for _, o := range reporter.outcomes {
		if o.Item == "b" {
			assert.Equal(t, StateFailed, o.State)
			assert.True(t, errs.Is(o.Err, errs.CodeRemoteRejection))
			assert.Contains(t, o.Reason(), "500")
		} else {
			assert.Equal(t, StateSucceeded, o.State)
		}
	}

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, deleteCalls)
	assert.Equal(t, jobs.JobStats{Found: 3, Deleted: 2, Failed: 1}, job.Stats())

	ts, err := strconv.ParseInt(tsTo, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestJobRunMalformedListingIssuesNoDeletes(t *testing.T) {
	var deletes int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files.delete" {
			deletes++
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := slackapi.NewClient(slackapi.ClientConfig{Name: "bad", BaseURL: server.URL, Token: "t", Logger: discardLogger()})
	defer client.Close()

	job := NewJob(JobConfig{Workspace: "bad", Enabled: true, Days: 30, Concurrency: 10}, client, nil, discardLogger())
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeParse))
	assert.Equal(t, 0, deletes)
}

func TestJobRunDeleteTimeoutIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files.list" {
			_, _ = w.Write([]byte(`{"ok":true,"files":[{"id":"F1"}]}`))
			return
		}
		// half a reply, then nothing until the client hangs up
		_, _ = w.Write([]byte(`{"ok":`))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-r.Context().Done():
		case <-time.After(300 * time.Millisecond):
		}
		_, _ = w.Write([]byte(`false,"error":"cant_delete_file"}`))
	}))
	defer server.Close()

	client := slackapi.NewClient(slackapi.ClientConfig{Name: "slow", BaseURL: server.URL, Token: "t", Logger: discardLogger()})
	defer client.Close()

	reporter := &recordingReporter{}
	job := NewJob(JobConfig{
		Workspace:     "slow",
		Enabled:       true,
		Days:          30,
		Concurrency:   1,
		DeleteTimeout: 50 * time.Millisecond,
	}, client, reporter, discardLogger())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, reporter.outcomes, 1)
	o := reporter.outcomes[0]
	assert.Equal(t, ItemID("F1"), o.Item)
	assert.Equal(t, StateFailed, o.State)
	assert.True(t, errs.Is(o.Err, errs.CodeNetwork), "got %v", o.Err)
	assert.Equal(t, jobs.JobStats{Found: 1, Deleted: 0, Failed: 1}, job.Stats())
}
