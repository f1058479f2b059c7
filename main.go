package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/thedittmer/daily-riff/internal/app"
	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/feeds"
	"github.com/thedittmer/daily-riff/internal/generator"
	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/storage"
	"github.com/thedittmer/daily-riff/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const tokenFile = "token.json"

// env is everything a subcommand needs, built once in main.
type env struct {
	cfg     *config.Config
	logger  *logger.Logger
	storage *storage.Storage
	store   *storage.ArticleStore
	svc     *app.Service
	feeds   *feeds.Fetcher
	out     *ui.Printer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch strings.ToLower(args[0]) {
	case "version", "--version", "-version":
		fmt.Printf("riff %s (%s) %s\n", version, commit, date)
		return 0
	case "help", "-h", "--help":
		usage()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riff: %v\n", err)
		return 1
	}
	defer func() {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("failed to close store", "error", err)
		}
	}()

	var cmdErr error
	switch strings.ToLower(args[0]) {
	case "generate", "gen":
		cmdErr = runGenerate(ctx, e, args[1:])
	case "saved":
		cmdErr = runSaved(ctx, e, args[1:])
	case "settings":
		cmdErr = runSettings(ctx, e, args[1:])
	case "topics":
		cmdErr = runTopics(ctx, e, args[1:])
	case "serve":
		cmdErr = runServe(ctx, e, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "riff: unknown command %q\n\n", args[0])
		usage()
		return 2
	}

	if cmdErr != nil {
		var usageErr usageError
		if errors.As(cmdErr, &usageErr) {
			fmt.Fprintf(os.Stderr, "riff: %v\n", cmdErr)
			return 2
		}
		e.out.Error(app.Message(cmdErr))
		e.logger.Error("command failed", "command", args[0], "error", cmdErr)
		return 1
	}

	return 0
}

func setup(ctx context.Context) (*env, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	st, err := storage.NewStorage(dir, log)
	if err != nil {
		return nil, err
	}
	store := st.Articles()

	auth := drive.NewLoopbackAuthorizer(st.Path(tokenFile), cfg.Behavior.ConsentTimeout, log)
	exporter := drive.NewExporter(auth, drive.Options{RequestTimeout: cfg.Behavior.RequestTimeout}, log)
	gen := generator.New(generator.NewGeminiClient(), log)

	svc := app.NewService(gen, store, exporter, cfg, app.Options{
		GenerationTimeout: cfg.Behavior.GenerationTimeout,
	}, log)
	svc.Start(ctx)

	return &env{
		cfg:     cfg,
		logger:  log,
		storage: st,
		store:   store,
		svc:     svc,
		feeds:   feeds.NewFetcher(cfg.Behavior.RequestTimeout, log),
		out: ui.NewPrinter(os.Stdout, ui.Options{
			AccentColor: cfg.Theme.AccentColor,
			DateFormat:  cfg.Display.DateFormat,
			Compact:     cfg.Display.CompactView,
		}),
	}, nil
}

type usageError string

func (e usageError) Error() string { return string(e) }

func usage() {
	fmt.Fprint(os.Stderr, `Daily Riff: short punchy posts on any topic, in the style of Seth Godin.

Usage:
  riff generate [--model pro|flash] [--save] [--export] [--copy N] [--from-feed URL] TOPIC...
  riff saved list
  riff saved show ID
  riff saved copy ID
  riff saved delete ID
  riff saved export ID
  riff saved dump DIR
  riff settings [--api-key] [--client-id ID] [--client-secret S] [--model M] [--sheet-id ID]
  riff topics [--limit N]
  riff serve [--addr HOST:PORT] [--log-level LEVEL]
  riff version

Settings live in $RIFF_HOME (default ~/.daily-riff).
`)
}
