// Package config builds the process configuration once at startup.
//
// Flags win over environment variables, which win over defaults. Every
// binary builds its configuration here; nothing outside this package reads
// the process environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Config is the battlesnake server configuration.
type Config struct {
	Listen      string
	LogLevel    string
	LogFormat   string
	DBPath      string
	Seed        int64
	RenderTurns bool
	MoveTimeout time.Duration

	Author string
	Color  string
	Head   string
	Tail   string
}

// Env is the subset of the environment Load consults. os.LookupEnv
// satisfies it.
type Env func(key string) (string, bool)

// Load parses args (without the program name) against env.
func Load(name string, args []string, env Env, output io.Writer) (Config, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}

	listenDefault := getEnvOrDefault(env, "LISTEN", ":8000")
	if port, ok := env("PORT"); ok && port != "" {
		listenDefault = ":" + port
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var cfg Config
	fs.StringVar(&cfg.Listen, "listen", listenDefault, "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnvOrDefault(env, "LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnvOrDefault(env, "LOG_FORMAT", "text"), "Log format: text, json, pretty")
	fs.StringVar(&cfg.DBPath, "db-path", getEnvOrDefault(env, "DB_PATH", ""), "SQLite turn history path (empty disables)")
	fs.Int64Var(&cfg.Seed, "seed", getEnvInt64OrDefault(env, "SEED", 0), "Move RNG seed (0 picks one from the clock)")
	fs.BoolVar(&cfg.RenderTurns, "render-turns", getEnvBoolOrDefault(env, "RENDER_TURNS", false), "Log the board render every turn at debug level")
	fs.DurationVar(&cfg.MoveTimeout, "move-timeout", getEnvDurationOrDefault(env, "MOVE_TIMEOUT", 500*time.Millisecond), "Warn when a move takes longer than this")
	fs.StringVar(&cfg.Author, "author", getEnvOrDefault(env, "SNAKE_AUTHOR", "snekgrid"), "Battlesnake author")
	fs.StringVar(&cfg.Color, "color", getEnvOrDefault(env, "SNAKE_COLOR", "#ee2c2c"), "Battlesnake color")
	fs.StringVar(&cfg.Head, "head", getEnvOrDefault(env, "SNAKE_HEAD", "default"), "Battlesnake head customization")
	fs.StringVar(&cfg.Tail, "tail", getEnvOrDefault(env, "SNAKE_TAIL", "default"), "Battlesnake tail customization")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	errs = append(errs, validateLogging(c.LogLevel, c.LogFormat)...)
	if c.MoveTimeout <= 0 {
		errs = append(errs, fmt.Errorf("move timeout must be positive, got %s", c.MoveTimeout))
	}
	return errors.Join(errs...)
}

func validateLogging(level, format string) []error {
	var errs []error
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", level))
	}
	switch format {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", format))
	}
	return errs
}

// Environment variable helpers
func getEnvOrDefault(env Env, key, defaultVal string) string {
	if val, ok := env(key); ok && val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(env Env, key string, defaultVal int) int {
	if val, ok := env(key); ok && val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64OrDefault(env Env, key string, defaultVal int64) int64 {
	if val, ok := env(key); ok && val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(env Env, key string, defaultVal time.Duration) time.Duration {
	if val, ok := env(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(env Env, key string, defaultVal bool) bool {
	if val, ok := env(key); ok && val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
