package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmylchreest/slog-logfilter"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how logs are written
type Options struct {
	Level  string
	Format string // "json" (default) or "text"
	File   string // optional rotating log file, written in addition to stdout
	Stdout io.Writer
}

// Setup configures the logger with the given level and format.
// Formats: "json" (default, recommended for k8s), "text" (logfmt style)
// The returned closer flushes and closes the log file, if any.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	filterOpts := []logfilter.Option{
		logfilter.WithLevel(parseLevel(opts.Level)),
		logfilter.WithOutput(out),
	}

	if opts.Format == "text" {
		filterOpts = append(filterOpts, logfilter.WithFormat("text"))
	} else {
		filterOpts = append(filterOpts, logfilter.WithFormat("json"))
	}

	logger := logfilter.New(filterOpts...)
	slog.SetDefault(logger)
	return logger, closer
}

// AddWorkspaceFilter enables debug output for a single workspace. Loggers derived with
// With before the call keep the filters they were created with.
func AddWorkspaceFilter(workspace string) {
	logfilter.AddFilter(logfilter.LogFilter{
		Type:    "workspace",
		Pattern: workspace,
		Level:   "debug",
		Enabled: true,
	})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
