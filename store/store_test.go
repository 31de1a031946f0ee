package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brensch/snekgrid/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "turns.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleBoard() game.Board {
	return game.Board{
		Width:   3,
		Height:  3,
		Food:    []game.Coord{{X: 2, Y: 2}},
		Hazards: []game.Coord{{X: 0, Y: 0}},
		Snakes:  []game.Snake{{ID: "me", Health: 80, Body: []game.Coord{{X: 1, Y: 1}, {X: 1, Y: 0}}, Length: 2}},
	}
}

func TestDB_GameLifecycle(t *testing.T) {
	db := openTestDB(t)

	if err := db.StartGame(Game{ID: "g1", Ruleset: "standard", Width: 3, Height: 3, YouID: "me"}); err != nil {
		t.Fatal(err)
	}
	// Duplicate /start is ignored.
	if err := db.StartGame(Game{ID: "g1", Ruleset: "wrapped"}); err != nil {
		t.Fatal(err)
	}

	for turn, move := range []string{"up", "left"} {
		err := db.RecordTurn(Turn{
			GameID:    "g1",
			Turn:      turn,
			YouID:     "me",
			Health:    80 - turn,
			Length:    2,
			Move:      move,
			SafeMoves: []string{"up", "left", "right"},
			Board:     sampleBoard(),
			Elapsed:   1500 * time.Microsecond,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := db.FinishGame("g1", "won", finished); err != nil {
		t.Fatal(err)
	}

	g, err := db.GetGame("g1")
	if err != nil {
		t.Fatal(err)
	}
	if g.Ruleset != "standard" || g.Result != "won" || !g.FinishedAt.Valid {
		t.Fatalf("game=%+v", g)
	}

	turns, err := db.GameTurns("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns=%d want 2", len(turns))
	}
	if turns[1].Move != "left" || turns[1].Health != 79 || len(turns[1].SafeMoves) != 3 {
		t.Fatalf("turn=%+v", turns[1])
	}
	if turns[0].Board.Food[0] != (game.Coord{X: 2, Y: 2}) || turns[0].Board.Snakes[0].Body[1] != (game.Coord{X: 1, Y: 0}) {
		t.Fatalf("board did not round trip: %+v", turns[0].Board)
	}
	if turns[0].Elapsed != 1500*time.Microsecond {
		t.Fatalf("elapsed=%s", turns[0].Elapsed)
	}

	games, finishedGames, wins, totalTurns, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if games != 1 || finishedGames != 1 || wins != 1 || totalTurns != 2 {
		t.Fatalf("stats=%d,%d,%d,%d", games, finishedGames, wins, totalTurns)
	}
}

func TestDB_TurnWithoutStart(t *testing.T) {
	db := openTestDB(t)

	if err := db.RecordTurn(Turn{GameID: "late", Turn: 5, YouID: "me", Move: "down", Board: sampleBoard()}); err != nil {
		t.Fatal(err)
	}
	g, err := db.GetGame("late")
	if err != nil {
		t.Fatal(err)
	}
	if g.Width != 3 || g.YouID != "me" || g.FinishedAt.Valid {
		t.Fatalf("game=%+v", g)
	}

	turns, err := db.GameTurns("late")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].SafeMoves != nil {
		t.Fatalf("turns=%+v", turns)
	}
}

func TestDB_FinishedGameIDs(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"b", "a", "c"} {
		if err := db.StartGame(Game{ID: id}); err != nil {
			t.Fatal(err)
		}
		if id == "c" {
			continue
		}
		if err := db.FinishGame(id, "lost", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := db.FinishedGameIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("ids=%v want [b a]", ids)
	}
}

func TestDB_UnknownGame(t *testing.T) {
	db := openTestDB(t)
	if err := db.FinishGame("nope", "won", time.Now()); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("err=%v want ErrUnknownGame", err)
	}
	if _, err := db.GetGame("nope"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("err=%v want ErrUnknownGame", err)
	}
}
