package replay

import (
	"fmt"
	"slices"

	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/rules"
)

// Verdict classifies one recorded move against the filter's safe set.
type Verdict int

const (
	// Agreed: the recorded move is one the filter considers safe.
	Agreed Verdict = iota
	// Unsafe: the filter had safe options and the recorded move is not one of them.
	Unsafe
	// Trapped: the filter found no safe move at all.
	Trapped
)

func (v Verdict) String() string {
	switch v {
	case Agreed:
		return "agreed"
	case Unsafe:
		return "unsafe"
	case Trapped:
		return "trapped"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Finding is one turn where the recorded move left the safe set.
type Finding struct {
	Turn     int
	Recorded game.Direction
	Safe     []game.Direction
	Verdict  Verdict
	// Died is set when the snake was eliminated on the following frame.
	Died bool
}

// Report summarises one snake's game.
type Report struct {
	GameID  string
	SnakeID string
	Name    string
	Turns   int
	Agreed  int
	Unsafe  int
	Trapped int
	// Findings lists every turn that was not Agreed, in turn order.
	Findings []Finding
}

// Analyze replays the snake identified by idOrName through every pair of
// consecutive frames where it moved, comparing the recorded direction with
// rules.SafeMoves on the earlier frame.
func Analyze(g *Game, idOrName string) (Report, error) {
	first, ok := g.Snake(0, idOrName)
	if !ok {
		return Report{}, fmt.Errorf("snake %q not in game %s", idOrName, g.ID)
	}
	rep := Report{GameID: g.ID, SnakeID: first.ID, Name: first.Name}

	for i := 0; i+1 < len(g.Frames); i++ {
		cur, ok := g.Snake(i, first.ID)
		if !ok || !cur.Alive() {
			break
		}
		next, ok := g.Snake(i+1, first.ID)
		if !ok || len(next.Body) == 0 {
			break
		}

		recorded, ok := MoveBetween(cur.Body[0], next.Body[0], g.Width, g.Height, g.Wrapped())
		if !ok {
			continue
		}

		board := g.Board(i)
		grid, err := game.NewGrid(board, g.HazardDamage, g.Wrapped())
		if err != nil {
			return rep, fmt.Errorf("turn %d: %w", g.Frames[i].Turn, err)
		}
		safe := rules.SafeMoves(grid, *board.SnakeByID(cur.ID))

		rep.Turns++
		verdict := Agreed
		switch {
		case len(safe) == 0:
			verdict = Trapped
			rep.Trapped++
		case !slices.Contains(safe, recorded):
			verdict = Unsafe
			rep.Unsafe++
		default:
			rep.Agreed++
		}
		if verdict != Agreed {
			rep.Findings = append(rep.Findings, Finding{
				Turn:     g.Frames[i].Turn,
				Recorded: recorded,
				Safe:     safe,
				Verdict:  verdict,
				Died:     !next.Alive(),
			})
		}
	}
	return rep, nil
}

// MoveBetween recovers the direction that took a head from one cell to the
// next. Moves off a non-wrapped board are recognised from the raw delta.
func MoveBetween(from, to game.Coord, width, height int, wrapped bool) (game.Direction, bool) {
	for _, dir := range game.Directions {
		if dest, ok := game.Resolve(from, dir, width, height, wrapped); ok && dest == to {
			return dir, true
		}
	}
	switch (game.Coord{X: to.X - from.X, Y: to.Y - from.Y}) {
	case game.Coord{X: 0, Y: 1}:
		return game.Up, true
	case game.Coord{X: 0, Y: -1}:
		return game.Down, true
	case game.Coord{X: -1, Y: 0}:
		return game.Left, true
	case game.Coord{X: 1, Y: 0}:
		return game.Right, true
	}
	return game.Up, false
}
