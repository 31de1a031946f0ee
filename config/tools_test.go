package config

import (
	"io"
	"slices"
	"testing"
	"time"
)

func TestLoadExport(t *testing.T) {
	cfg, err := LoadExport("export", nil, nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "snekgrid.db" || cfg.OutDir != "data" || cfg.FlushGames != 1000 {
		t.Fatalf("defaults=%+v", cfg)
	}

	env := envOf(map[string]string{"DB_PATH": "/tmp/h.db", "FLUSH_GAMES": "5", "OUT_DIR": "/tmp/out"})
	cfg, err = LoadExport("export", []string{"-flush-games", "7"}, env, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/tmp/h.db" || cfg.OutDir != "/tmp/out" || cfg.FlushGames != 7 {
		t.Fatalf("cfg=%+v", cfg)
	}

	if _, err := LoadExport("export", []string{"-log-format", "xml"}, nil, io.Discard); err == nil {
		t.Fatalf("expected error for bad log format")
	}
	if _, err := LoadExport("export", []string{"-db-path", ""}, nil, io.Discard); err == nil {
		t.Fatalf("expected error for empty db path")
	}
}

func TestLoadReplay(t *testing.T) {
	env := envOf(map[string]string{"GAMES": " a, b,,c ", "DELAY": "2s", "CONCURRENCY": "8"})
	cfg, err := LoadReplay("replay", []string{"-snake", "me"}, env, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cfg.Games, []string{"a", "b", "c"}) {
		t.Fatalf("games=%q", cfg.Games)
	}
	if cfg.Delay != 2*time.Second || cfg.Concurrency != 8 || cfg.Snake != "me" || cfg.EngineURL != "" {
		t.Fatalf("cfg=%+v", cfg)
	}

	if _, err := LoadReplay("replay", []string{"-concurrency", "0"}, nil, io.Discard); err == nil {
		t.Fatalf("expected error for zero concurrency")
	}
	if _, err := LoadReplay("replay", []string{"-engine-url", "ws://x/events"}, nil, io.Discard); err == nil {
		t.Fatalf("expected error for engine url without %%s")
	}
}
