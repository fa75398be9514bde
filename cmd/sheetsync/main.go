package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
	"github.com/ideamans/go-sheetsync/adapters/memory"
	"github.com/ideamans/go-sheetsync/internal/config"
	"github.com/ideamans/go-sheetsync/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "sheetsync: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("sheetsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "path to a TOML config file")
		addr        = fs.String("addr", "", "listen address (overrides config)")
		backend     = fs.String("backend", "", "storage backend: googlesheets, excel or memory (overrides config)")
		debug       = fs.Bool("debug", false, "enable debug logging")
		writeConfig = fs.String("write-config", "", "write the effective config as TOML to this path and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags override the file and the environment
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *debug {
		cfg.Server.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(stderr, "config written to %s\n", *writeConfig)
		return nil
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	syncer, err := sheetsync.New(store,
		sheetsync.WithConfig(cfg.Sync),
		sheetsync.WithLogger(logger))
	if err != nil {
		return err
	}

	srv := server.New(syncer, server.Options{
		Logger:      logger,
		SyncTimeout: cfg.Server.SyncTimeout.Duration,
		Debug:       cfg.Server.Debug,
	})

	return srv.Run(ctx, cfg.Server.Addr)
}

func newStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (sheetsync.Store, error) {
	switch cfg.Backend {
	case config.BackendGoogleSheets:
		auth := cfg.GoogleSheets.Auth()
		attrs := []any{slog.String("credentials", auth.Source())}
		if id := auth.Identity(); id != "" {
			attrs = append(attrs, slog.String("share_with", id))
		}
		logger.Info("using google sheets", attrs...)

		return googlesheets.Connect(ctx, googlesheets.Config{ValueInputOption: cfg.GoogleSheets.ValueInputOption}, auth)

	case config.BackendExcel:
		logger.Info("using excel workbooks", slog.String("dir", cfg.Excel.Dir))
		return excel.New(&excel.Config{Dir: cfg.Excel.Dir, CreateMissing: cfg.Excel.CreateMissing})

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		s := memory.New()
		s.CreateMissing = true
		return s, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
