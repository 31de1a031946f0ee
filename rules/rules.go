// Package rules is the move-selection layer on top of the grid model: the
// neck rule, the per-direction safety filter and the random tie-break.
package rules

import (
	"fmt"
	"math/rand"

	"github.com/brensch/snekgrid/api"
	"github.com/brensch/snekgrid/game"
)

// FallbackMove is returned when no direction is safe.
const FallbackMove = game.Up

// Decision is the outcome of one /move request.
type Decision struct {
	Move game.Direction
	Safe []game.Direction
	Grid *game.Grid
}

// NeckDirection returns the direction that would move the head back onto
// Body[1]. ok is false for snakes shorter than two segments or when the neck
// is stacked under the head (start of game).
func NeckDirection(you game.Snake) (game.Direction, bool) {
	if len(you.Body) < 2 {
		return game.Up, false
	}
	head, neck := you.Body[0], you.Body[1]

	switch {
	case neck.X < head.X:
		return game.Left, true
	case neck.X > head.X:
		return game.Right, true
	case neck.Y < head.Y:
		return game.Down, true
	case neck.Y > head.Y:
		return game.Up, true
	}
	return game.Up, false
}

// SafeMoves returns the directions, in wire order, that do not lead to
// certain death for you. The neck direction is dropped before the safety
// predicate is consulted. Edge exits on a non-wrapped board have no
// destination and are unsafe.
func SafeMoves(g *game.Grid, you game.Snake) []game.Direction {
	head := headOf(you)
	neck, hasNeck := NeckDirection(you)

	moves := make([]game.Direction, 0, len(game.Directions))
	for _, dir := range game.Directions {
		if hasNeck && dir == neck {
			continue
		}
		dest, ok := g.Resolve(head, dir)
		if !ok {
			continue
		}
		if game.IsSafe(dest.X, dest.Y, g) {
			moves = append(moves, dir)
		}
	}
	return moves
}

// ChooseMove picks uniformly among safe moves, or FallbackMove when there
// are none.
func ChooseMove(safe []game.Direction, rng *rand.Rand) game.Direction {
	if len(safe) == 0 {
		return FallbackMove
	}
	if rng == nil {
		return safe[rand.Intn(len(safe))]
	}
	return safe[rng.Intn(len(safe))]
}

// Decide builds this turn's grid from the request and picks a move for You.
func Decide(req *api.GameRequest, rng *rand.Rand) (Decision, error) {
	g, err := game.NewGrid(req.Board, req.HazardDamage(), req.Wrapped())
	if err != nil {
		return Decision{}, fmt.Errorf("build grid: %w", err)
	}
	if !g.InBounds(headOf(req.You)) {
		return Decision{}, fmt.Errorf("you %s head %v: %w", req.You.ID, headOf(req.You), game.ErrOutOfBounds)
	}

	safe := SafeMoves(g, req.You)
	return Decision{
		Move: ChooseMove(safe, rng),
		Safe: safe,
		Grid: g,
	}, nil
}

func headOf(s game.Snake) game.Coord {
	if len(s.Body) > 0 {
		return s.Body[0]
	}
	return s.Head
}
