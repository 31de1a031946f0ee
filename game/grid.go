package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidDimensions = errors.New("board dimensions must be positive")
	ErrBoardTooLarge     = errors.New("board too large for cell index")
	ErrOutOfBounds       = errors.New("coordinate outside board")
)

// Cell is one coordinate's snapshot for a single turn.
// Occupant is nil when no body segment covers the coordinate.
type Cell struct {
	Coord    Coord
	Occupant *Snake
	Hazard   int
	Food     bool
}

// Empty reports whether no snake occupies the cell.
func (c *Cell) Empty() bool {
	return c.Occupant == nil
}

// Grid is the dense per-turn board. Cells are laid out x-major:
// index = x*Height + y.
type Grid struct {
	Width   int
	Height  int
	Wrapped bool
	cells   []Cell
}

// NewGrid builds the grid for one turn.
//
// Every hazard entry adds hazardDamage to its cell, so repeated entries stack
// and a negative damage (healing pool) yields a negative hazard. When body
// segments overlap, the snake processed last owns the cell.
func NewGrid(board Board, hazardDamage int, wrapped bool) (*Grid, error) {
	if board.Width <= 0 || board.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, board.Width, board.Height)
	}
	if board.Width > math.MaxInt32/board.Height {
		return nil, fmt.Errorf("%w: %dx%d", ErrBoardTooLarge, board.Width, board.Height)
	}

	g := &Grid{
		Width:   board.Width,
		Height:  board.Height,
		Wrapped: wrapped,
		cells:   make([]Cell, board.Width*board.Height),
	}
	for i := range g.cells {
		g.cells[i].Coord = Coord{X: i / g.Height, Y: i % g.Height}
	}

	for _, f := range board.Food {
		if !g.InBounds(f) {
			return nil, fmt.Errorf("food %v: %w", f, ErrOutOfBounds)
		}
		g.cells[g.index(f)].Food = true
	}

	for _, h := range board.Hazards {
		if !g.InBounds(h) {
			return nil, fmt.Errorf("hazard %v: %w", h, ErrOutOfBounds)
		}
		g.cells[g.index(h)].Hazard += hazardDamage
	}

	for _, s := range board.Snakes {
		snapshot := s.Clone()
		for _, p := range s.Body {
			if !g.InBounds(p) {
				return nil, fmt.Errorf("snake %s body %v: %w", s.ID, p, ErrOutOfBounds)
			}
			g.cells[g.index(p)].Occupant = &snapshot
		}
	}

	return g, nil
}

func (g *Grid) index(c Coord) int {
	return c.X*g.Height + c.Y
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// InBounds reports whether c lies on the board.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Cell returns the cell at c. Callers must have checked bounds already;
// an out-of-range coordinate is a programmer error and panics.
func (g *Grid) Cell(c Coord) *Cell {
	if !g.InBounds(c) {
		panic(fmt.Sprintf("game: Cell(%d,%d) outside %dx%d grid", c.X, c.Y, g.Width, g.Height))
	}
	return &g.cells[g.index(c)]
}

// Lookup is the checked form of Cell.
func (g *Grid) Lookup(c Coord) (*Cell, bool) {
	if !g.InBounds(c) {
		return nil, false
	}
	return &g.cells[g.index(c)], true
}

// Symbol returns the debug symbol for c, by priority:
// occupant, food on a damaging cell, food, damaging cell, empty.
func (g *Grid) Symbol(c Coord) byte {
	cell := g.Cell(c)
	switch {
	case cell.Occupant != nil:
		return 's'
	case cell.Food && cell.Hazard > 0:
		return 'F'
	case cell.Food:
		return 'f'
	case cell.Hazard > 0:
		return 'h'
	default:
		return 'x'
	}
}

// String renders the grid top row first.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.Width * g.Height * 2)
	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			b.WriteByte(g.Symbol(Coord{X: x, Y: y}))
			b.WriteByte(' ')
		}
		if y != 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
