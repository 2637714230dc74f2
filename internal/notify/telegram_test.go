package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/go-slackpurge/internal/jobs"
)

type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
	chatIDs  []string
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"purge","username":"purge_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.mu.Lock()
			f.messages = append(f.messages, r.FormValue("text"))
			f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}
}

func sampleStats() *jobs.CycleStats {
	return &jobs.CycleStats{
		Duration:     1500 * time.Millisecond,
		ItemsFound:   map[string]int{"purge:b": 1, "purge:a": 3},
		ItemsDeleted: map[string]int{"purge:b": 1, "purge:a": 2},
		ItemsFailed:  map[string]int{"purge:a": 1},
	}
}

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(sampleStats())

	assert.Equal(t, "Slack file purge finished in 1.5s\n"+
		"Found: 4\nDeleted: 3\nFailed: 1\n"+
		"- purge:a: 2/3 deleted\n"+
		"- purge:b: 1/1 deleted", got)
}

func TestTelegramNotify(t *testing.T) {
	fake := &fakeTelegram{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	n, err := NewTelegram(TelegramConfig{
		BotToken:    "123:abc",
		ChatID:      42,
		APIEndpoint: server.URL + "/bot%s/%s",
	})
	require.NoError(t, err)
	assert.Equal(t, "telegram", n.Name())

	require.NoError(t, n.Notify(context.Background(), sampleStats()))

	require.Len(t, fake.messages, 1)
	assert.Contains(t, fake.messages[0], "Deleted: 3")
	assert.Equal(t, "42", fake.chatIDs[0])
}

func TestTelegramSkipEmpty(t *testing.T) {
	fake := &fakeTelegram{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	n, err := NewTelegram(TelegramConfig{
		BotToken:    "123:abc",
		ChatID:      42,
		APIEndpoint: server.URL + "/bot%s/%s",
		SkipEmpty:   true,
	})
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), &jobs.CycleStats{}))
	assert.Empty(t, fake.messages)
}

func TestNewTelegramBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := NewTelegram(TelegramConfig{
		BotToken:    "bad",
		ChatID:      42,
		APIEndpoint: server.URL + "/bot%s/%s",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create telegram bot")
}

func TestTelegramNotifyCancelled(t *testing.T) {
	fake := &fakeTelegram{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	n, err := NewTelegram(TelegramConfig{BotToken: "123:abc", ChatID: 42, APIEndpoint: server.URL + "/bot%s/%s"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Notify(ctx, sampleStats()), context.Canceled)
	assert.Empty(t, fake.messages)
}
