package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tubevault/tubevault/internal/adapter"
	"github.com/tubevault/tubevault/internal/favorites"
	"github.com/tubevault/tubevault/internal/history"
	"github.com/tubevault/tubevault/internal/playlist"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/urfave/cli/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting tubevault", "version", Version)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.Storage.Path)
		return err
	}
	defer st.Close()

	runner := NewRunner(RunnerConfig{
		Config:    cfg,
		Favorites: favorites.NewService(st, logger),
		History:   history.NewRecorder(st, cfg.History.Limit, logger),
		Playlists: playlist.NewService(st, logger),
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "tubevault",
		Usage:    "Manage a local library of favorites, history and playlists",
		Version:  Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}

	logger.Info("shutting down")
	return nil
}
