package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/go-slackpurge/internal/config"
	"github.com/jmylchreest/go-slackpurge/internal/jobs"
	"github.com/jmylchreest/go-slackpurge/internal/logging"
	"github.com/jmylchreest/go-slackpurge/internal/notify"
	"github.com/jmylchreest/go-slackpurge/internal/purge"
	"github.com/jmylchreest/go-slackpurge/internal/report"
	"github.com/jmylchreest/go-slackpurge/internal/scheduler"
	"github.com/jmylchreest/go-slackpurge/internal/slackapi"
	"github.com/jmylchreest/go-slackpurge/internal/version"
	"github.com/jmylchreest/go-slackpurge/pkg/httpclient"
)

// Exit codes
const (
	exitOK            = 0
	exitFatal         = 1
	exitPartialFailed = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// cliOptions are the parsed command line
type cliOptions struct {
	configPath  string
	days        string
	concurrency int
	testRun     bool
	daemon      bool
	showVersion bool
	set         map[string]bool
}

func parseFlags(args []string, out io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("go-slackpurge", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(out, "Delete Slack files uploaded before a certain number of days.")
		_, _ = fmt.Fprintln(out, "\nUsage: go-slackpurge [flags] [days]")
		fs.PrintDefaults()
	}

	opts := &cliOptions{set: make(map[string]bool)}
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: ./config.yaml or /app/config.yaml)")
	fs.StringVar(&opts.days, "days", "", "Delete files older than this many days (default 30)")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Maximum concurrent delete requests (default 10)")
	fs.BoolVar(&opts.testRun, "test-run", false, "List files that would be deleted without deleting them")
	fs.BoolVar(&opts.daemon, "daemon", false, "Keep running and purge on general.schedule")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	switch fs.NArg() {
	case 0:
	case 1:
		opts.days = fs.Arg(0)
		opts.set["days"] = true
	default:
		return nil, fmt.Errorf("expected at most one positional argument, got %d", fs.NArg())
	}

	return opts, nil
}

// overrides converts the command line into config overrides, collecting every problem
func (o *cliOptions) overrides() (config.Overrides, []string) {
	var ov config.Overrides
	var problems []string

	if o.set["days"] {
		days, err := purge.ParseDays(o.days)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			ov.Days = &days
		}
	}
	if o.set["concurrency"] {
		if o.concurrency < 1 {
			problems = append(problems, "concurrency must be at least 1")
		} else {
			ov.Concurrency = &o.concurrency
		}
	}
	if o.set["test-run"] {
		ov.TestRun = &o.testRun
	}

	return ov, problems
}

func run(args []string, stdout io.Writer) int {
	console := report.NewConsole(stdout)

	opts, err := parseFlags(args, stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		console.Issues([]string{err.Error()})
		return exitFatal
	}

	if opts.showVersion {
		info := version.Get()
		_, _ = fmt.Fprintf(stdout, "go-slackpurge %s\n", info.Version)
		_, _ = fmt.Fprintf(stdout, "  Commit:     %s\n", info.Commit)
		_, _ = fmt.Fprintf(stdout, "  Built:      %s\n", info.BuildDate)
		_, _ = fmt.Fprintf(stdout, "  Go version: %s\n", info.GoVersion)
		_, _ = fmt.Fprintf(stdout, "  OS/Arch:    %s\n", info.Platform)
		return exitOK
	}

	// Pre-flight: everything is checked before any network call
	ov, problems := opts.overrides()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		console.Issues(append(problems, err.Error()))
		return exitFatal
	}
	cfg.Apply(ov)
	if err := cfg.Validate(); err != nil {
		problems = append(problems, issueLines(err)...)
	}
	if opts.daemon && cfg.General.Schedule == "" {
		problems = append(problems, "-daemon requires general.schedule to be set")
	}
	if len(problems) > 0 {
		console.Issues(problems)
		return exitFatal
	}

	// env vars override config
	logLevel := cfg.General.LogLevel
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
	}
	logFormat := cfg.General.LogFormat
	if envFormat := os.Getenv("LOG_FORMAT"); envFormat != "" {
		logFormat = envFormat
	}
	logger, logCloser := logging.Setup(logging.Options{
		Level:  logLevel,
		Format: logFormat,
		File:   cfg.General.LogFile,
		Stdout: os.Stderr,
	})
	defer func() { _ = logCloser.Close() }()

	info := version.Get()
	logger.Info("starting go-slackpurge",
		"version", info.Version,
		"commit", info.Commit,
		"built", info.BuildDate,
		"test_run", cfg.General.TestRun,
	)

	manager := jobs.NewManager(logger)
	defer manager.Close()

	if err := registerAll(manager, cfg, console, logger); err != nil {
		logger.Error("initialization failed", "error", err)
		console.Issues([]string{err.Error()})
		return exitFatal
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.daemon {
		return runDaemon(ctx, manager, cfg, console, logger)
	}
	return runOnce(ctx, manager, console, logger)
}

// issueLines splits a joined validation error back into one line per problem
func issueLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var lines []string
	for _, e := range joined.Unwrap() {
		lines = append(lines, e.Error())
	}
	return lines
}

func runOnce(ctx context.Context, manager *jobs.Manager, console *report.Console, logger *slog.Logger) int {
	if err := manager.RunAll(ctx); err != nil {
		logger.Error("purge had errors", "error", err)
	}

	stats := manager.GetLastStats()
	console.Summary(stats)

	switch {
	case stats.JobsFailed > 0:
		return exitFatal
	case stats.Totals().Failed > 0:
		return exitPartialFailed
	default:
		return exitOK
	}
}

func runDaemon(ctx context.Context, manager *jobs.Manager, cfg *config.Config, console *report.Console, logger *slog.Logger) int {
	sched := scheduler.New(logger)
	cycle := func(ctx context.Context) error {
		if cfg.General.TestRun {
			logger.Info("running in TEST MODE - no files will be deleted")
		}
		err := manager.RunAll(ctx)
		console.Summary(manager.GetLastStats())
		return err
	}

	if err := sched.AddJob(ctx, cfg.General.Schedule, "purge", cycle); err != nil {
		logger.Error("failed to schedule purge", "error", err)
		return exitFatal
	}

	// Run immediately on startup
	if err := cycle(ctx); err != nil {
		logger.Error("cycle had errors", "error", err)
		// keep running
	}

	sched.Start()
	<-ctx.Done()
	logger.Info("shutdown signal received")
	sched.Stop()

	return exitOK
}

func registerAll(manager *jobs.Manager, cfg *config.Config, reporter purge.Reporter, logger *slog.Logger) error {
	for _, ws := range cfg.Workspaces {
		if ws.Debug {
			logging.AddWorkspaceFilter(ws.Name)
		}

		client := slackapi.NewClient(slackapi.ClientConfig{
			Name:         ws.Name,
			BaseURL:      ws.APIURL,
			Token:        ws.Token,
			UserAgent:    version.UserAgent(),
			Timeout:      cfg.General.RequestTimeout,
			MaxIdleConns: ws.EffectiveConcurrency(cfg.PurgeDefaults),
			SkipTLS:      !cfg.General.SSLVerification,
			Logger:       logger,
		})
		manager.RegisterCloser("slack:"+ws.Name, client)

		job := purge.NewJob(purge.JobConfig{
			Workspace:     ws.Name,
			Enabled:       ws.IsEnabled(),
			Days:          ws.EffectiveDays(cfg.PurgeDefaults),
			Concurrency:   ws.EffectiveConcurrency(cfg.PurgeDefaults),
			DeleteTimeout: cfg.PurgeDefaults.DeleteTimeout,
			TestRun:       cfg.General.TestRun,
		}, client, reporter, logger)
		manager.RegisterJob(job)

		logger.Debug("registered workspace",
			"workspace", ws.Name,
			"days", ws.EffectiveDays(cfg.PurgeDefaults),
			"concurrency", ws.EffectiveConcurrency(cfg.PurgeDefaults),
		)
	}

	if t := cfg.Notify.Telegram; t.Enabled {
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.General.RequestTimeout
		httpCfg.SkipTLSVerify = !cfg.General.SSLVerification
		tgHTTP := httpclient.New(httpCfg)
		manager.RegisterCloser("telegram", tgHTTP)

		n, err := notify.NewTelegram(notify.TelegramConfig{
			BotToken:    t.BotToken,
			ChatID:      t.ChatID,
			APIEndpoint: t.APIEndpoint,
			SkipEmpty:   t.SkipEmpty,
			HTTPClient:  tgHTTP.Standard(),
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		manager.RegisterNotifier(n)
	}

	logger.Debug("initialization complete", "workspaces", len(cfg.Workspaces))
	return nil
}
