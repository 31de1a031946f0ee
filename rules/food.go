package rules

import (
	"math/rand"

	"github.com/brensch/snekgrid/game"
)

// FoodSettings matches the common Battlesnake server knobs:
// - MinimumFood: ensure at least this many food items exist after each turn
// - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each turn
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// SpawnFood places food on unoccupied, food-free cells of board. It is only
// used by the local simulator; live games receive food from the engine.
// rng must not be nil. It returns the number of items placed.
func SpawnFood(board *game.Board, rng *rand.Rand, settings FoodSettings) int {
	if board == nil || board.Width <= 0 || board.Height <= 0 {
		return 0
	}
	if settings.MinimumFood < 0 {
		settings.MinimumFood = 0
	}
	settings.FoodSpawnChance = min(max(settings.FoodSpawnChance, 0), 100)

	deficit := max(settings.MinimumFood-len(board.Food), 0)
	spawnExtra := settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return 0
	}

	occupied := make(map[game.Coord]struct{}, board.Width*board.Height)
	for _, s := range board.Snakes {
		if s.Health <= 0 {
			continue
		}
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range board.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Coord, 0, max(board.Width*board.Height-len(occupied), 0))
	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			p := game.Coord{X: x, Y: y}
			if _, ok := occupied[p]; ok {
				continue
			}
			available = append(available, p)
		}
	}

	placed := 0
	for ; placed < toSpawn && len(available) > 0; placed++ {
		i := rng.Intn(len(available))
		board.Food = append(board.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
	return placed
}

// EatFood removes food under any living snake's head. The engine does this
// between turns; the local simulator has to do it itself.
func EatFood(board *game.Board) {
	heads := make(map[game.Coord]struct{}, len(board.Snakes))
	for _, s := range board.Snakes {
		if s.Health > 0 && len(s.Body) > 0 {
			heads[s.Body[0]] = struct{}{}
		}
	}

	remaining := board.Food[:0]
	for _, f := range board.Food {
		if _, eaten := heads[f]; !eaten {
			remaining = append(remaining, f)
		}
	}
	board.Food = remaining
}
