// Package notify delivers cycle summaries to chat services.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jmylchreest/go-slackpurge/internal/jobs"
	"github.com/jmylchreest/go-slackpurge/pkg/httpclient"
)

// TelegramConfig holds configuration for creating a Telegram notifier
type TelegramConfig struct {
	BotToken    string
	ChatID      int64
	APIEndpoint string // tgbotapi.APIEndpoint when empty
	SkipEmpty   bool   // stay quiet when a cycle found nothing
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Telegram posts a summary message after every cycle
type Telegram struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	skipEmpty bool
	logger    *slog.Logger
}

// NewTelegram creates the notifier. It calls getMe, so a bad token fails here.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.DefaultConfig()).Standard()
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Telegram{
		bot:       bot,
		chatID:    cfg.ChatID,
		skipEmpty: cfg.SkipEmpty,
		logger:    logger.With("component", "notify", "notifier", "telegram"),
	}, nil
}

// Name returns the notifier identifier
func (t *Telegram) Name() string {
	return "telegram"
}

// Notify implements jobs.Notifier
func (t *Telegram) Notify(ctx context.Context, stats *jobs.CycleStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.skipEmpty && stats.Totals().Found == 0 && len(stats.Errors) == 0 {
		t.logger.Debug("nothing to report, skipping message")
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(stats))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	t.logger.Debug("sent cycle summary", "chat_id", t.chatID)
	return nil
}

// FormatSummary renders a cycle as plain text
func FormatSummary(stats *jobs.CycleStats) string {
	totals := stats.Totals()

	var b strings.Builder
	fmt.Fprintf(&b, "Slack file purge finished in %s\n", stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Found: %d\nDeleted: %d\nFailed: %d\n", totals.Found, totals.Deleted, totals.Failed)

	names := make([]string, 0, len(stats.ItemsFound))
	for name := range stats.ItemsFound {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d/%d deleted\n", name, stats.ItemsDeleted[name], stats.ItemsFound[name])
	}

	for _, e := range stats.Errors {
		fmt.Fprintf(&b, "Error: %s\n", e)
	}

	return strings.TrimRight(b.String(), "\n")
}
