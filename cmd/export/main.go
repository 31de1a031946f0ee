// Command export copies finished games from the SQLite turn history into
// zstd-compressed Parquet batches, skipping games already exported.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/brensch/snekgrid/archive"
	"github.com/brensch/snekgrid/config"
	"github.com/brensch/snekgrid/logging"
	"github.com/brensch/snekgrid/store"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadExport("export", os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("turn history not found: %w", err)
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open turn history: %w", err)
	}
	defer db.Close()

	exported, err := archive.OpenExportLog(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("open export log: %w", err)
	}
	defer exported.Close()

	absOut, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		absOut = cfg.OutDir
	}

	games, finished, wins, turns, err := db.Stats()
	if err != nil {
		logger.Warn("stats", "err", err)
	}
	logger.Info("starting export",
		"db", cfg.DBPath,
		"out_dir", absOut,
		"export_log", cfg.LogPath,
		"already_exported", exported.Count(),
		"games", games,
		"finished", finished,
		"wins", wins,
		"turns", turns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &archive.Exporter{
		DB:         db,
		Log:        exported,
		OutDir:     absOut,
		FlushGames: cfg.FlushGames,
		Logger:     logger,
	}
	sum, err := e.Run(ctx)
	logger.Info("export finished",
		"exported", sum.GamesExported,
		"skipped", sum.GamesSkipped,
		"failed", sum.GamesFailed,
		"batches", len(sum.Batches),
		"rows", sum.RowsWritten,
	)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
