package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/brensch/snekgrid/api"
	"github.com/brensch/snekgrid/config"
	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/logging"
	"github.com/brensch/snekgrid/store"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{Listen: ":0", Seed: 7, RenderTurns: true, Author: "tester", Color: "#123456", Head: "beluga", Tail: "curled"}
}

func moveRequest() api.GameRequest {
	you := game.Snake{
		ID:     "me",
		Name:   "me",
		Health: 90,
		Body:   []game.Coord{{X: 1, Y: 1}, {X: 1, Y: 0}},
		Head:   game.Coord{X: 1, Y: 1},
		Length: 2,
	}
	return api.GameRequest{
		Game: api.Game{ID: "g1", Ruleset: api.Ruleset{Name: "standard"}},
		Turn: 3,
		Board: game.Board{
			Width:  3,
			Height: 3,
			Snakes: []game.Snake{you},
		},
		You: you,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s := New(testConfig(), logging.Discard(), nil)
	rec := do(t, s.Router(), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Server"), "snekgrid/") {
		t.Fatalf("server header=%q", rec.Header().Get("Server"))
	}

	var info api.InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.APIVersion != "1" || info.Author != "tester" || info.Color != "#123456" || info.Head != "beluga" || info.Tail != "curled" {
		t.Fatalf("info=%+v", info)
	}
}

func TestMove_PicksSafeDirection(t *testing.T) {
	s := New(testConfig(), logging.Discard(), nil)
	router := s.Router()

	for i := 0; i < 20; i++ {
		rec := do(t, router, http.MethodPost, "/move", moveRequest())
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
		}
		var resp api.MoveResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !slices.Contains([]string{"up", "left", "right"}, resp.Move) {
			t.Fatalf("move=%q not safe", resp.Move)
		}
	}
}

func TestMove_TrappedFallsBackToUp(t *testing.T) {
	s := New(testConfig(), logging.Discard(), nil)
	req := moveRequest()
	req.Board.Width, req.Board.Height = 1, 2
	req.You.Body = []game.Coord{{X: 0, Y: 1}, {X: 0, Y: 0}}
	req.Board.Snakes = []game.Snake{req.You}

	rec := do(t, s.Router(), http.MethodPost, "/move", req)
	var resp api.MoveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Move != "up" || resp.Shout == "" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestMove_BadPayloads(t *testing.T) {
	s := New(testConfig(), logging.Discard(), nil)
	router := s.Router()

	if rec := do(t, router, http.MethodPost, "/move", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", rec.Code)
	}

	zero := moveRequest()
	zero.Board.Width = 0
	if rec := do(t, router, http.MethodPost, "/move", zero); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero width status=%d", rec.Code)
	}

	outside := moveRequest()
	outside.Board.Food = []game.Coord{{X: 9, Y: 9}}
	rec := do(t, router, http.MethodPost, "/move", outside)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("out of bounds status=%d body=%s", rec.Code, rec.Body)
	}

	// The process keeps serving after rejected turns.
	if rec := do(t, router, http.MethodPost, "/move", moveRequest()); rec.Code != http.StatusOK {
		t.Fatalf("status after rejects=%d", rec.Code)
	}
}

func TestGameLifecycle_RecordsHistory(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := New(testConfig(), logging.Discard(), db)
	router := s.Router()
	req := moveRequest()

	for _, path := range []string{"/start", "/move", "/end"} {
		if rec := do(t, router, http.MethodPost, path, req); rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	g, err := db.GetGame("g1")
	if err != nil {
		t.Fatal(err)
	}
	if g.Result != "won" || g.Ruleset != "standard" || g.Width != 3 || !g.FinishedAt.Valid {
		t.Fatalf("game=%+v", g)
	}

	turns, err := db.GameTurns("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Turn != 3 || len(turns[0].SafeMoves) != 3 {
		t.Fatalf("turns=%+v", turns)
	}

	rec := do(t, router, http.MethodGet, "/stats", nil)
	var stats map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["games"] != 1 || stats["wins"] != 1 || stats["turns"] != 1 {
		t.Fatalf("stats=%v", stats)
	}
}

func TestStats_WithoutStore(t *testing.T) {
	s := New(testConfig(), logging.Discard(), nil)
	if rec := do(t, s.Router(), http.MethodGet, "/stats", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestResult(t *testing.T) {
	req := moveRequest()
	if got := Result(&req); got != "won" {
		t.Fatalf("alive=%s", got)
	}
	req.Board.Snakes = []game.Snake{{ID: "other"}}
	if got := Result(&req); got != "lost" {
		t.Fatalf("other alive=%s", got)
	}
	req.Board.Snakes = nil
	if got := Result(&req); got != "draw" {
		t.Fatalf("none alive=%s", got)
	}
}
