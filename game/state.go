// Package game defines the per-turn board model for Battlesnake.
//
// A Grid is built fresh from the Board payload every turn and never carried
// over to the next one. The movement resolver in this package computes where
// a snake ends up after a move and applies the resulting health and length
// changes. Nothing here logs or performs I/O.
package game

// MaxHealth is the health a snake is reset to after eating.
const MaxHealth = 100

// Coord is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snake is a single entity on the board. Body[0] is the head; a duplicated
// trailing segment means the snake has just grown.
//
// Length is tracked independently of len(Body). The movement resolver only
// increments it on food and never reconciles the two.
type Snake struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Health  int     `json:"health"`
	Body    []Coord `json:"body"`
	Head    Coord   `json:"head"`
	Length  int     `json:"length"`
	Latency string  `json:"latency"`
	Shout   string  `json:"shout,omitempty"`
	Squad   string  `json:"squad,omitempty"`
}

// Board is the authoritative per-turn payload. It is input only: the grid
// copies what it needs and never writes back.
type Board struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Food    []Coord `json:"food"`
	Hazards []Coord `json:"hazards"`
	Snakes  []Snake `json:"snakes"`
}

// Clone performs a deep copy of the snake.
func (s Snake) Clone() Snake {
	out := s
	if s.Body != nil {
		out.Body = make([]Coord, len(s.Body))
		copy(out.Body, s.Body)
	}
	return out
}

// Clone performs a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}

	out := &Board{Width: b.Width, Height: b.Height}

	if len(b.Food) > 0 {
		out.Food = make([]Coord, len(b.Food))
		copy(out.Food, b.Food)
	}
	if len(b.Hazards) > 0 {
		out.Hazards = make([]Coord, len(b.Hazards))
		copy(out.Hazards, b.Hazards)
	}
	if len(b.Snakes) > 0 {
		out.Snakes = make([]Snake, len(b.Snakes))
		for i := range b.Snakes {
			out.Snakes[i] = b.Snakes[i].Clone()
		}
	}

	return out
}

// SnakeByID returns a pointer into b.Snakes, or nil.
func (b *Board) SnakeByID(id string) *Snake {
	for i := range b.Snakes {
		if b.Snakes[i].ID == id {
			return &b.Snakes[i]
		}
	}
	return nil
}

// ParseWrapped reports whether a ruleset name selects the toroidal topology.
func ParseWrapped(rulesetName string) bool {
	return rulesetName == "wrapped"
}
