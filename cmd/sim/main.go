// Command sim plays solo games locally using the server's move filter.
//
// Without -tui it plays -games games and logs each result. With -tui the
// games are stepped in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/logging"
	"github.com/brensch/snekgrid/render"
	"github.com/brensch/snekgrid/rules"
	"github.com/brensch/snekgrid/sim"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	def := sim.DefaultConfig()
	width := flag.Int("width", def.Width, "Board width")
	height := flag.Int("height", def.Height, "Board height")
	wrapped := flag.Bool("wrapped", false, "Play on a wrapped board")
	hazardDamage := flag.Int("hazard-damage", def.HazardDamage, "Damage per turn on a hazard cell (negative heals)")
	hazardBorder := flag.Int("hazard-border", 0, "Depth of the hazard ring around the board edge")
	minFood := flag.Int("min-food", def.Food.MinimumFood, "Minimum food on the board")
	foodChance := flag.Int("food-chance", def.Food.FoodSpawnChance, "Percent chance of extra food each turn")
	maxTurns := flag.Int("max-turns", def.MaxTurns, "Stop a game after this many turns (0 = no limit)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = random)")
	games := flag.Int("games", 1, "Games to play without -tui")
	tui := flag.Bool("tui", false, "Step games in the terminal")
	interval := flag.Duration("interval", 150*time.Millisecond, "Delay between turns in -tui mode")
	renderDir := flag.String("render-dir", "", "Write a PNG per turn under this directory")
	logLevel := flag.String("log-level", "info", "Log level")
	logFormat := flag.String("log-format", "text", "Log format: text, json, pretty")
	flag.Parse()

	cfg := sim.Config{
		Width:        *width,
		Height:       *height,
		Wrapped:      *wrapped,
		HazardDamage: *hazardDamage,
		Hazards:      sim.HazardBorder(*width, *height, *hazardBorder),
		Food:         rules.FoodSettings{MinimumFood: *minFood, FoodSpawnChance: *foodChance},
		StartLength:  def.StartLength,
		MaxTurns:     *maxTurns,
		Seed:         *seed,
	}

	if *tui {
		m, err := initialModel(cfg, *interval)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sim: %v\n", err)
			os.Exit(1)
		}
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "sim: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sim: %v\n", err)
		os.Exit(2)
	}

	totalTurns, best := 0, 0
	for i := 0; i < *games; i++ {
		gameCfg := cfg
		if cfg.Seed != 0 {
			gameCfg.Seed = cfg.Seed + int64(i)
		}
		g, err := sim.New(gameCfg)
		if err != nil {
			logger.Error("new game", "err", err)
			os.Exit(1)
		}

		var onFrame func(sim.Frame) error
		if *renderDir != "" {
			opts := render.DefaultOptions
			opts.Highlight = g.You().ID
			dir := filepath.Join(*renderDir, g.ID)
			onFrame = func(f sim.Frame) error {
				return render.SavePNG(f.Grid, filepath.Join(dir, fmt.Sprintf("turn_%03d.png", f.Turn)), opts)
			}
		}

		if err := g.Run(onFrame); err != nil {
			logger.Error("game failed", "game", g.ID, "turn", g.Turn, "err", err)
			os.Exit(1)
		}
		if *renderDir != "" {
			saveFinalBoard(g, cfg, *renderDir)
		}

		you := g.You()
		totalTurns += g.Turn
		best = max(best, you.Length)
		logger.Info("game over", "game", g.ID, "turns", g.Turn, "length", you.Length, "health", you.Health, "cause", g.Cause)
		logger.Debug("final board", "game", g.ID, "grid", finalGrid(g, cfg))
	}
	logger.Info("done", "games", *games, "turns", totalTurns, "best_length", best)
}

// saveFinalBoard renders the board after the last move; Run only sees the
// boards that moves were made from.
func saveFinalBoard(g *sim.Game, cfg sim.Config, dir string) {
	grid, err := game.NewGrid(g.Board, cfg.HazardDamage, cfg.Wrapped)
	if err != nil {
		return
	}
	opts := render.DefaultOptions
	opts.Highlight = g.You().ID
	_ = render.SavePNG(grid, filepath.Join(dir, g.ID, "final.png"), opts)
}

func finalGrid(g *sim.Game, cfg sim.Config) string {
	grid, err := game.NewGrid(g.Board, cfg.HazardDamage, cfg.Wrapped)
	if err != nil {
		return err.Error()
	}
	return grid.String()
}

func names(dirs []game.Direction) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.String()
	}
	return out
}
