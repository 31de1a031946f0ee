package game

import (
	"fmt"
	"strings"
	"testing"
)

// dumpSnake is a test helper to visualize a snake before/after a move.
func dumpSnake(s Snake) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Snake %s Health=%d Length=%d Body:", s.ID, s.Health, s.Length)
	for _, p := range s.Body {
		fmt.Fprintf(&b, " (%d,%d)", p.X, p.Y)
	}
	return b.String()
}

func logMove(t *testing.T, g *Grid, before Snake, dir Direction, after Snake, alive bool) {
	t.Helper()
	t.Logf("move=%s alive=%v\n%s\n  BEFORE: %s\n  AFTER:  %s", dir, alive, g, dumpSnake(before), dumpSnake(after))
}

func mustGrid(t *testing.T, b Board, hazardDamage int, wrapped bool) *Grid {
	t.Helper()
	g, err := NewGrid(b, hazardDamage, wrapped)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestDirection_StringAndParse(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Fatalf("ParseDirection(%q)=%v,%v want %v", d.String(), got, err, d)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error")
	}
	if got := Direction(9).String(); got != "Direction(9)" {
		t.Fatalf("String=%q", got)
	}
}

func TestResolve_Interior(t *testing.T) {
	start := Coord{X: 2, Y: 2}
	want := map[Direction]Coord{
		Up:    {X: 2, Y: 3},
		Down:  {X: 2, Y: 1},
		Left:  {X: 1, Y: 2},
		Right: {X: 3, Y: 2},
	}
	for _, wrapped := range []bool{false, true} {
		for dir, w := range want {
			got, ok := Resolve(start, dir, 5, 5, wrapped)
			if !ok || got != w {
				t.Fatalf("wrapped=%v %s: got %v,%v want %v", wrapped, dir, got, ok, w)
			}
		}
	}
}

func TestResolve_Edges(t *testing.T) {
	const w, h = 7, 5
	cases := []struct {
		start   Coord
		dir     Direction
		wrapped Coord
	}{
		{Coord{X: 3, Y: h - 1}, Up, Coord{X: 3, Y: 0}},
		{Coord{X: 3, Y: 0}, Down, Coord{X: 3, Y: h - 1}},
		{Coord{X: 0, Y: 2}, Left, Coord{X: w - 1, Y: 2}},
		{Coord{X: w - 1, Y: 2}, Right, Coord{X: 0, Y: 2}},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.start, tc.dir, w, h, true)
		if !ok || got != tc.wrapped {
			t.Fatalf("wrapped %s from %v: got %v,%v want %v", tc.dir, tc.start, got, ok, tc.wrapped)
		}
		if got, ok := Resolve(tc.start, tc.dir, w, h, false); ok {
			t.Fatalf("unwrapped %s from %v: got %v want no destination", tc.dir, tc.start, got)
		}
	}
}

func TestResolve_RightChecksXNotY(t *testing.T) {
	// On a 5-wide board, y == width-1 must not block a Right move.
	got, ok := Resolve(Coord{X: 1, Y: 4}, Right, 5, 6, false)
	if !ok || got != (Coord{X: 2, Y: 4}) {
		t.Fatalf("got %v,%v want (2,4),true", got, ok)
	}
}

func TestIsSafe(t *testing.T) {
	g := mustGrid(t, Board{
		Width:   4,
		Height:  3,
		Food:    []Coord{{X: 0, Y: 0}, {X: 1, Y: 1}},
		Hazards: []Coord{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 3, Y: 2}},
		Snakes:  []Snake{{ID: "a", Body: []Coord{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}}}},
	}, 14, false)

	cases := []struct {
		x, y int
		want bool
	}{
		{4, 0, false},
		{0, 3, false},
		{-1, 0, false},
		{0, -1, false},
		{1, 1, false}, // occupied despite food and hazard
		{2, 2, false}, // tail
		{0, 0, true},  // food + hazard
		{3, 2, true},  // hazard only
		{3, 0, true},
	}
	for _, tc := range cases {
		if got := IsSafe(tc.x, tc.y, g); got != tc.want {
			t.Fatalf("IsSafe(%d,%d)=%v want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestApplyMove_NormalMove(t *testing.T) {
	g := mustGrid(t, Board{Width: 7, Height: 7}, 0, false)
	s := Snake{ID: "me", Health: 10, Length: 3, Body: []Coord{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}, Head: Coord{X: 3, Y: 3}}
	before := s.Clone()

	alive := ApplyMove(g, &s, Up)
	logMove(t, g, before, Up, s, alive)

	if !alive {
		t.Fatalf("expected alive")
	}
	want := []Coord{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}}
	if len(s.Body) != len(want) {
		t.Fatalf("body len=%d want=%d", len(s.Body), len(want))
	}
	for i := range want {
		if s.Body[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, s.Body[i], want[i])
		}
	}
	if s.Head != want[0] {
		t.Fatalf("head=%v want=%v", s.Head, want[0])
	}
	if s.Health != 9 || s.Length != 3 {
		t.Fatalf("health=%d length=%d want 9,3", s.Health, s.Length)
	}
}

func TestApplyMove_EatFood(t *testing.T) {
	g := mustGrid(t, Board{Width: 7, Height: 7, Food: []Coord{{X: 3, Y: 4}}, Hazards: []Coord{{X: 3, Y: 4}}}, 14, false)
	s := Snake{ID: "me", Health: 50, Length: 3, Body: []Coord{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}}
	before := s.Clone()

	alive := ApplyMove(g, &s, Up)
	logMove(t, g, before, Up, s, alive)

	if !alive {
		t.Fatalf("expected alive")
	}
	want := []Coord{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 2}}
	if len(s.Body) != len(want) {
		t.Fatalf("body len=%d want=%d", len(s.Body), len(want))
	}
	for i := range want {
		if s.Body[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, s.Body[i], want[i])
		}
	}
	if s.Health != MaxHealth {
		t.Fatalf("health=%d want=%d", s.Health, MaxHealth)
	}
	if s.Length != before.Length+1 {
		t.Fatalf("length=%d want=%d", s.Length, before.Length+1)
	}
}

func TestApplyMove_HazardFloorsAtZero(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3, Hazards: []Coord{{X: 1, Y: 2}}}, 12, false)
	s := Snake{ID: "me", Health: 10, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}

	if ApplyMove(g, &s, Up) {
		t.Fatalf("expected eliminated")
	}
	if s.Health != 0 {
		t.Fatalf("health=%d want=0", s.Health)
	}
}

func TestApplyMove_HazardDamage(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3, Hazards: []Coord{{X: 1, Y: 2}, {X: 1, Y: 2}}}, 14, false)
	s := Snake{ID: "me", Health: 90, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}

	if !ApplyMove(g, &s, Up) {
		t.Fatalf("expected alive")
	}
	if s.Health != 62 {
		t.Fatalf("health=%d want=62", s.Health)
	}
}

func TestApplyMove_HealingCapped(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3, Hazards: []Coord{{X: 1, Y: 2}, {X: 0, Y: 1}}}, -5, false)

	s := Snake{ID: "me", Health: 98, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}
	if !ApplyMove(g, &s, Up) {
		t.Fatalf("expected alive")
	}
	if s.Health != MaxHealth {
		t.Fatalf("health=%d want=%d", s.Health, MaxHealth)
	}

	s = Snake{ID: "me", Health: 50, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}
	if !ApplyMove(g, &s, Left) {
		t.Fatalf("expected alive")
	}
	if s.Health != 55 {
		t.Fatalf("health=%d want=55", s.Health)
	}
}

func TestApplyMove_StarvesOnLastPoint(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3}, 0, false)
	s := Snake{ID: "me", Health: 1, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}

	if ApplyMove(g, &s, Up) {
		t.Fatalf("expected eliminated")
	}
	if s.Health != 0 {
		t.Fatalf("health=%d want=0", s.Health)
	}
}

func TestApplyMove_NoDestinationLeavesSnake(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3}, 0, false)
	s := Snake{ID: "me", Health: 50, Length: 2, Body: []Coord{{X: 1, Y: 2}, {X: 1, Y: 1}}, Head: Coord{X: 1, Y: 2}}
	before := s.Clone()

	if ApplyMove(g, &s, Up) {
		t.Fatalf("expected no destination to be fatal")
	}
	if s.Health != before.Health || s.Body[0] != before.Body[0] || s.Body[1] != before.Body[1] {
		t.Fatalf("snake mutated: %s", dumpSnake(s))
	}
}

func TestApplyMove_Wrapped(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3}, 0, true)
	s := Snake{ID: "me", Health: 50, Length: 2, Body: []Coord{{X: 1, Y: 2}, {X: 1, Y: 1}}}

	if !ApplyMove(g, &s, Up) {
		t.Fatalf("expected alive")
	}
	if s.Body[0] != (Coord{X: 1, Y: 0}) || s.Body[1] != (Coord{X: 1, Y: 2}) {
		t.Fatalf("body=%v", s.Body)
	}
}

func TestApplyMove_EliminatedIsAbsorbing(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3, Food: []Coord{{X: 1, Y: 2}}}, 0, false)
	s := Snake{ID: "me", Health: 0, Length: 2, Body: []Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}}

	if ApplyMove(g, &s, Up) {
		t.Fatalf("expected eliminated snake to stay eliminated")
	}
	if s.Health != 0 || s.Body[0] != (Coord{X: 1, Y: 1}) {
		t.Fatalf("snake mutated: %s", dumpSnake(s))
	}
}

func TestApplyMove_EmptyBodyUsesHead(t *testing.T) {
	g := mustGrid(t, Board{Width: 3, Height: 3}, 0, false)
	s := Snake{ID: "me", Health: 5, Head: Coord{X: 0, Y: 0}}

	if !ApplyMove(g, &s, Right) {
		t.Fatalf("expected alive")
	}
	if len(s.Body) != 1 || s.Body[0] != (Coord{X: 1, Y: 0}) || s.Head != s.Body[0] {
		t.Fatalf("snake=%s head=%v", dumpSnake(s), s.Head)
	}
}
