// Package main runs the snekgrid Battlesnake API server.
//
// Each /move builds the turn's grid, removes the neck and unsafe directions
// and answers with a random survivor. Game history is kept in SQLite when
// -db-path (DB_PATH) is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brensch/snekgrid/config"
	"github.com/brensch/snekgrid/logging"
	"github.com/brensch/snekgrid/server"
	"github.com/brensch/snekgrid/store"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "battlesnake: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("battlesnake", os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var db *store.DB
	if cfg.DBPath != "" {
		db, err = store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer db.Close()
	}

	logger.Info("starting battlesnake",
		"listen", cfg.Listen,
		"db", cfg.DBPath,
		"render_turns", cfg.RenderTurns,
		"move_timeout", cfg.MoveTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, logger, db).Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
