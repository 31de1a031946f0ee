package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Export configures the parquet export tool.
type Export struct {
	DBPath     string
	OutDir     string
	LogPath    string
	FlushGames int
	LogLevel   string
	LogFormat  string
}

// LoadExport parses the export tool's flags against env.
func LoadExport(name string, args []string, env Env, output io.Writer) (Export, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var cfg Export
	fs.StringVar(&cfg.DBPath, "db-path", getEnvOrDefault(env, "DB_PATH", "snekgrid.db"), "SQLite turn history written by the server")
	fs.StringVar(&cfg.OutDir, "out-dir", getEnvOrDefault(env, "OUT_DIR", "data"), "Directory to write batch .parquet files")
	fs.StringVar(&cfg.LogPath, "log-path", getEnvOrDefault(env, "EXPORT_LOG", "data/exported_games.log"), "Append-only log of game IDs already exported")
	fs.IntVar(&cfg.FlushGames, "flush-games", getEnvIntOrDefault(env, "FLUSH_GAMES", 1000), "Flush when buffered games reaches this count")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnvOrDefault(env, "LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnvOrDefault(env, "LOG_FORMAT", "text"), "Log format: text, json, pretty")

	if err := fs.Parse(args); err != nil {
		return Export{}, err
	}

	errs := validateLogging(cfg.LogLevel, cfg.LogFormat)
	if cfg.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if cfg.OutDir == "" || cfg.LogPath == "" {
		errs = append(errs, errors.New("out dir and log path are required"))
	}
	if err := errors.Join(errs...); err != nil {
		return Export{}, err
	}
	return cfg, nil
}

// Replay configures the replay tool. An empty EngineURL keeps the
// downloader's default.
type Replay struct {
	Games          []string
	PlayerURL      string
	LeaderboardURL string
	MaxPlayers     int
	MaxGames       int
	Snake          string
	EngineURL      string
	Concurrency    int
	Delay          time.Duration
	RenderDir      string
	LogLevel       string
	LogFormat      string
}

// LoadReplay parses the replay tool's flags against env.
func LoadReplay(name string, args []string, env Env, output io.Writer) (Replay, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var cfg Replay
	var games string
	fs.StringVar(&games, "games", getEnvOrDefault(env, "GAMES", ""), "Comma-separated game IDs to replay")
	fs.StringVar(&cfg.PlayerURL, "player", getEnvOrDefault(env, "PLAYER_URL", ""), "Player stats page to discover game IDs from")
	fs.StringVar(&cfg.LeaderboardURL, "leaderboard", getEnvOrDefault(env, "LEADERBOARD_URL", ""), "Leaderboard page whose players' games are replayed")
	fs.IntVar(&cfg.MaxPlayers, "max-players", getEnvIntOrDefault(env, "MAX_PLAYERS", 10), "Maximum number of leaderboard players to crawl")
	fs.IntVar(&cfg.MaxGames, "max-games", getEnvIntOrDefault(env, "MAX_GAMES", 50), "Maximum number of games to replay (0 = unlimited)")
	fs.StringVar(&cfg.Snake, "snake", getEnvOrDefault(env, "SNAKE", ""), "Snake ID or name to analyse (empty = every snake)")
	fs.StringVar(&cfg.EngineURL, "engine-url", getEnvOrDefault(env, "ENGINE_URL", ""), "Engine event stream URL template (%s is the game ID)")
	fs.IntVar(&cfg.Concurrency, "concurrency", getEnvIntOrDefault(env, "CONCURRENCY", 4), "Games downloaded in parallel")
	fs.DurationVar(&cfg.Delay, "delay", getEnvDurationOrDefault(env, "DELAY", 500*time.Millisecond), "Delay between discovery requests")
	fs.StringVar(&cfg.RenderDir, "render-dir", getEnvOrDefault(env, "RENDER_DIR", ""), "Write a PNG per turn under this directory")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnvOrDefault(env, "LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnvOrDefault(env, "LOG_FORMAT", "text"), "Log format: text, json, pretty")

	if err := fs.Parse(args); err != nil {
		return Replay{}, err
	}
	cfg.Games = splitList(games)

	errs := validateLogging(cfg.LogLevel, cfg.LogFormat)
	if cfg.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency))
	}
	if cfg.EngineURL != "" && !strings.Contains(cfg.EngineURL, "%s") {
		errs = append(errs, fmt.Errorf("engine url %q has no %%s for the game ID", cfg.EngineURL))
	}
	if err := errors.Join(errs...); err != nil {
		return Replay{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
