package game

import "fmt"

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every move in wire order.
var Directions = [4]Direction{Up, Down, Left, Right}

var directionNames = [4]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if d < Up || d > Right {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection maps a wire move string to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if s == name {
			return Direction(i), nil
		}
	}
	return Up, fmt.Errorf("unknown direction %q", s)
}

// Resolve returns the coordinate one step from start in dir. ok is false when
// the move leaves a non-wrapped board. Boundaries are compared before any
// arithmetic on the coordinate.
func Resolve(start Coord, dir Direction, width, height int, wrapped bool) (Coord, bool) {
	switch dir {
	case Up:
		if start.Y == height-1 {
			if !wrapped {
				return Coord{}, false
			}
			return Coord{X: start.X, Y: 0}, true
		}
		return Coord{X: start.X, Y: start.Y + 1}, true
	case Down:
		if start.Y == 0 {
			if !wrapped {
				return Coord{}, false
			}
			return Coord{X: start.X, Y: height - 1}, true
		}
		return Coord{X: start.X, Y: start.Y - 1}, true
	case Left:
		if start.X == 0 {
			if !wrapped {
				return Coord{}, false
			}
			return Coord{X: width - 1, Y: start.Y}, true
		}
		return Coord{X: start.X - 1, Y: start.Y}, true
	case Right:
		if start.X == width-1 {
			if !wrapped {
				return Coord{}, false
			}
			return Coord{X: 0, Y: start.Y}, true
		}
		return Coord{X: start.X + 1, Y: start.Y}, true
	}
	return Coord{}, false
}

// Resolve is Resolve using the grid's dimensions and topology.
func (g *Grid) Resolve(start Coord, dir Direction) (Coord, bool) {
	return Resolve(start, dir, g.Width, g.Height, g.Wrapped)
}

// IsSafe reports whether moving onto (x, y) is not certain death: the
// coordinate must be on the board and unoccupied. Tails count as occupied
// even though they may vacate this turn.
func IsSafe(x, y int, g *Grid) bool {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return false
	}
	return g.Cell(Coord{X: x, Y: y}).Occupant == nil
}

// ApplyMove advances s one step in dir and applies food and hazard effects
// of the destination cell. It returns whether s is still alive.
//
// No destination, or a snake that is already at zero health, leaves s
// untouched and returns false. Collisions with other bodies are not checked.
func ApplyMove(g *Grid, s *Snake, dir Direction) bool {
	if s.Health <= 0 {
		return false
	}

	start := s.Head
	if len(s.Body) > 0 {
		start = s.Body[0]
	}
	dest, ok := g.Resolve(start, dir)
	if !ok {
		return false
	}
	cell := g.Cell(dest)

	if len(s.Body) > 0 {
		copy(s.Body[1:], s.Body[:len(s.Body)-1])
		s.Body[0] = dest
	} else {
		s.Body = append(s.Body, dest)
	}
	s.Head = dest

	if cell.Food {
		s.Body = append(s.Body, s.Body[len(s.Body)-1])
		s.Health = MaxHealth
		s.Length++
		return true
	}

	switch {
	case cell.Hazard >= s.Health:
		s.Health = 0
	case cell.Hazard > 0:
		s.Health -= cell.Hazard
	case cell.Hazard < 0:
		// Healing pool: adds health, capped.
		if cell.Hazard <= s.Health-MaxHealth {
			s.Health = MaxHealth
		} else {
			s.Health -= cell.Hazard
		}
	default:
		s.Health--
	}

	return s.Health > 0
}
