// Package sim plays solo games locally with the same grid, move filter and
// move application used by the server.
package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/rules"
	"github.com/google/uuid"
)

var ErrGameOver = errors.New("game over")

// Elimination causes, named as the engine names them.
const (
	CauseWall      = "wall-collision"
	CauseSelf      = "snake-self-collision"
	CauseHealth    = "out-of-health"
	CauseTurnLimit = "turn-limit"
)

type Config struct {
	Width        int
	Height       int
	Wrapped      bool
	HazardDamage int
	Hazards      []game.Coord
	Food         rules.FoodSettings
	StartLength  int
	MaxTurns     int // 0 = no limit
	Seed         int64
}

func DefaultConfig() Config {
	return Config{
		Width:        11,
		Height:       11,
		HazardDamage: 14,
		Food:         rules.DefaultFoodSettings,
		StartLength:  3,
		MaxTurns:     500,
	}
}

// HazardBorder returns the cells within depth of the board edge.
func HazardBorder(width, height, depth int) []game.Coord {
	var out []game.Coord
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if x < depth || y < depth || x >= width-depth || y >= height-depth {
				out = append(out, game.Coord{X: x, Y: y})
			}
		}
	}
	return out
}

// Frame is the state before one turn and the decision taken on it.
type Frame struct {
	Turn  int
	Board game.Board
	Grid  *game.Grid
	Move  game.Direction
	Safe  []game.Direction
}

// Game is one solo game in progress.
type Game struct {
	ID    string
	Turn  int
	Board game.Board
	Over  bool
	Cause string

	cfg Config
	rng *rand.Rand
}

// New places a snake of cfg.StartLength stacked segments on a random cell
// and spawns the initial food.
func New(cfg Config) (*Game, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, game.ErrInvalidDimensions)
	}
	if cfg.StartLength <= 0 {
		cfg.StartLength = 3
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	start := game.Coord{X: rng.Intn(cfg.Width), Y: rng.Intn(cfg.Height)}
	body := make([]game.Coord, cfg.StartLength)
	for i := range body {
		body[i] = start
	}

	id := uuid.New().String()
	g := &Game{
		ID: id,
		Board: game.Board{
			Width:   cfg.Width,
			Height:  cfg.Height,
			Hazards: append([]game.Coord(nil), cfg.Hazards...),
			Snakes: []game.Snake{{
				ID:     "solo-" + id[:8],
				Name:   "solo",
				Health: game.MaxHealth,
				Body:   body,
				Head:   start,
				Length: cfg.StartLength,
			}},
		},
		cfg: cfg,
		rng: rng,
	}
	rules.SpawnFood(&g.Board, rng, rules.FoodSettings{MinimumFood: max(cfg.Food.MinimumFood, 1)})
	return g, nil
}

// You returns the simulated snake.
func (g *Game) You() *game.Snake {
	return &g.Board.Snakes[0]
}

// Step plays one turn. The returned frame holds the board as it was before
// the move.
func (g *Game) Step() (Frame, error) {
	if g.Over {
		return Frame{}, ErrGameOver
	}

	grid, err := game.NewGrid(g.Board, g.cfg.HazardDamage, g.cfg.Wrapped)
	if err != nil {
		return Frame{}, fmt.Errorf("turn %d: %w", g.Turn, err)
	}
	you := g.You()
	safe := rules.SafeMoves(grid, *you)
	move := rules.ChooseMove(safe, g.rng)

	frame := Frame{
		Turn:  g.Turn,
		Board: *g.Board.Clone(),
		Grid:  grid,
		Move:  move,
		Safe:  safe,
	}

	dest, ok := grid.Resolve(you.Body[0], move)
	switch {
	case !ok:
		g.end(CauseWall)
	case !game.IsSafe(dest.X, dest.Y, grid):
		g.end(CauseSelf)
	case !game.ApplyMove(grid, you, move):
		g.end(CauseHealth)
	}
	if g.Over {
		return frame, nil
	}

	rules.EatFood(&g.Board)
	rules.SpawnFood(&g.Board, g.rng, g.cfg.Food)
	g.Turn++
	if g.cfg.MaxTurns > 0 && g.Turn >= g.cfg.MaxTurns {
		g.end(CauseTurnLimit)
	}
	return frame, nil
}

// Run steps until the game ends, calling onFrame (if set) after every turn.
func (g *Game) Run(onFrame func(Frame) error) error {
	for !g.Over {
		f, err := g.Step()
		if err != nil {
			return err
		}
		if onFrame != nil {
			if err := onFrame(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) end(cause string) {
	g.Over = true
	g.Cause = cause
	if cause != CauseTurnLimit {
		g.You().Health = 0
	}
}
