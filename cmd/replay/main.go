// Command replay downloads finished games from the Battlesnake engine and
// reports every turn where a snake's recorded move was outside the safe set
// computed for that turn.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/brensch/snekgrid/config"
	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/logging"
	"github.com/brensch/snekgrid/render"
	"github.com/brensch/snekgrid/replay"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := config.LoadReplay("replay", os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 30 * time.Second}
	ids := append([]string(nil), opts.Games...)
	if opts.PlayerURL != "" {
		found, err := replay.GameIDs(ctx, client, opts.PlayerURL)
		if err != nil {
			return fmt.Errorf("discover player games %s: %w", opts.PlayerURL, err)
		}
		ids = append(ids, found...)
	}
	if opts.LeaderboardURL != "" {
		found, err := crawlLeaderboard(ctx, logger, client, opts.LeaderboardURL, opts.MaxPlayers, opts.Delay)
		if err != nil {
			return fmt.Errorf("crawl leaderboard %s: %w", opts.LeaderboardURL, err)
		}
		ids = append(ids, found...)
	}
	ids = dedupe(ids)
	if opts.MaxGames > 0 && len(ids) > opts.MaxGames {
		ids = ids[:opts.MaxGames]
	}
	if len(ids) == 0 {
		return errors.New("no games to replay; pass -games, -player or -leaderboard")
	}

	cfg := replay.DefaultConfig()
	if opts.EngineURL != "" {
		cfg.EngineURL = opts.EngineURL
	}
	cfg.Logger = logger

	logger.Info("replaying", "games", len(ids), "concurrency", opts.Concurrency, "snake", opts.Snake)

	var (
		mu      sync.Mutex
		reports []replay.Report
		failed  int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for _, id := range ids {
		id := id
		eg.Go(func() error {
			g, err := replay.Download(egCtx, cfg, id)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				logger.Warn("download failed", "game", id, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			got, err := analyseGame(g, opts.Snake)
			if err != nil {
				logger.Warn("analyse failed", "game", id, "err", err)
			}
			if opts.RenderDir != "" {
				if err := renderGame(g, filepath.Join(opts.RenderDir, g.ID), highlight(got)); err != nil {
					logger.Warn("render failed", "game", id, "err", err)
				}
			}

			mu.Lock()
			reports = append(reports, got...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("replay interrupted: %w", err)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].GameID != reports[j].GameID {
			return reports[i].GameID < reports[j].GameID
		}
		return reports[i].SnakeID < reports[j].SnakeID
	})

	var turns, unsafe, trapped int
	for _, r := range reports {
		turns += r.Turns
		unsafe += r.Unsafe
		trapped += r.Trapped
		logger.Info("report", "game", r.GameID, "snake", r.Name, "turns", r.Turns,
			"agreed", r.Agreed, "unsafe", r.Unsafe, "trapped", r.Trapped)
		for _, f := range r.Findings {
			logger.Info("finding", "game", r.GameID, "snake", r.Name, "turn", f.Turn,
				"verdict", f.Verdict.String(), "recorded", f.Recorded.String(), "safe", names(f.Safe), "died", f.Died)
		}
	}
	logger.Info("done", "games", len(ids), "failed", failed, "reports", len(reports),
		"turns", turns, "unsafe", unsafe, "trapped", trapped)
	return nil
}

func analyseGame(g *replay.Game, snake string) ([]replay.Report, error) {
	if snake != "" {
		r, err := replay.Analyze(g, snake)
		if err != nil {
			return nil, err
		}
		return []replay.Report{r}, nil
	}
	var reports []replay.Report
	for _, s := range g.Frames[0].Snakes {
		r, err := replay.Analyze(g, s.ID)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func renderGame(g *replay.Game, dir, highlightID string) error {
	opts := render.DefaultOptions
	opts.Highlight = highlightID
	for i, f := range g.Frames {
		grid, err := game.NewGrid(g.Board(i), g.HazardDamage, g.Wrapped())
		if err != nil {
			return fmt.Errorf("turn %d: %w", f.Turn, err)
		}
		if err := render.SavePNG(grid, filepath.Join(dir, fmt.Sprintf("turn_%03d.png", f.Turn)), opts); err != nil {
			return err
		}
	}
	return nil
}

func crawlLeaderboard(ctx context.Context, logger *slog.Logger, client *http.Client, url string, maxPlayers int, delay time.Duration) ([]string, error) {
	players, err := replay.Players(ctx, client, url)
	if err != nil {
		return nil, err
	}
	if maxPlayers > 0 && len(players) > maxPlayers {
		players = players[:maxPlayers]
	}
	logger.Info("found players", "url", url, "players", len(players))

	var ids []string
	for i, p := range players {
		found, err := replay.GameIDs(ctx, client, p.StatsURL)
		if err != nil {
			logger.Warn("player games", "player", p.Username, "err", err)
		} else {
			logger.Debug("player games", "player", p.Username, "n", i+1, "games", len(found))
			ids = append(ids, found...)
		}

		select {
		case <-ctx.Done():
			return ids, ctx.Err()
		case <-time.After(delay):
		}
	}
	return ids, nil
}

func highlight(reports []replay.Report) string {
	if len(reports) == 1 {
		return reports[0].SnakeID
	}
	return ""
}

func names(dirs []game.Direction) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.String()
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
