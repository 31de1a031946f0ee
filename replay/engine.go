// Package replay downloads finished games from the Battlesnake engine and
// re-runs the move filter over every recorded turn.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/snekgrid/api"
	"github.com/brensch/snekgrid/game"
	"github.com/gorilla/websocket"
)

// DefaultBoardSize is assumed when neither game_info nor the frames carry
// board dimensions.
const DefaultBoardSize = 11

// Config holds downloader configuration
type Config struct {
	EngineURL      string // WebSocket URL template, %s is the game ID
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// GameEvent represents an event from the WebSocket stream
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo from the "game_info" event
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Timeout int    `json:"timeout"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type RulesetInfo struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings json.RawMessage `json:"settings"`
}

// FrameData from "frame" events. Some feeds put hazards at the top level,
// some under board.
type FrameData struct {
	Turn    int          `json:"turn"`
	Snakes  []SnakeData  `json:"snakes"`
	Food    []game.Coord `json:"food"`
	Hazards []game.Coord `json:"hazards,omitempty"`
	Board   BoardData    `json:"board"`
}

type SnakeData struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Health int          `json:"health"`
	Body   []game.Coord `json:"body"`
	Author string       `json:"author,omitempty"`
	Death  *Death       `json:"death,omitempty"`
}

type BoardData struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Hazards []game.Coord `json:"hazards,omitempty"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

// Alive reports whether the snake is still on the board in this frame.
func (s *SnakeData) Alive() bool {
	return s.Death == nil && s.Health > 0 && len(s.Body) > 0
}

// Game is one downloaded game.
type Game struct {
	ID           string
	Ruleset      string
	Width        int
	Height       int
	HazardDamage int
	Frames       []FrameData
}

// Wrapped reports whether the game was played on a toroidal board.
func (g *Game) Wrapped() bool {
	return game.ParseWrapped(g.Ruleset)
}

// Snake returns the snake with the given ID or name in frame i.
func (g *Game) Snake(i int, idOrName string) (*SnakeData, bool) {
	if i < 0 || i >= len(g.Frames) {
		return nil, false
	}
	for j := range g.Frames[i].Snakes {
		s := &g.Frames[i].Snakes[j]
		if s.ID == idOrName || s.Name == idOrName {
			return s, true
		}
	}
	return nil, false
}

// Board converts frame i to a game.Board. Eliminated snakes are left out.
func (g *Game) Board(i int) game.Board {
	f := &g.Frames[i]
	b := game.Board{
		Width:  g.Width,
		Height: g.Height,
		Food:   append([]game.Coord(nil), f.Food...),
	}
	b.Hazards = append(b.Hazards, f.Hazards...)
	b.Hazards = append(b.Hazards, f.Board.Hazards...)

	for _, s := range f.Snakes {
		if !s.Alive() {
			continue
		}
		b.Snakes = append(b.Snakes, game.Snake{
			ID:     s.ID,
			Name:   s.Name,
			Health: s.Health,
			Body:   append([]game.Coord(nil), s.Body...),
			Head:   s.Body[0],
			Length: len(s.Body),
		})
	}
	return b
}

// Winner names the only snake alive in the last frame, or "draw".
func (g *Game) Winner() string {
	if len(g.Frames) == 0 {
		return "unknown"
	}
	var alive []SnakeData
	for _, s := range g.Frames[len(g.Frames)-1].Snakes {
		if s.Alive() {
			alive = append(alive, s)
		}
	}
	if len(alive) == 1 {
		return alive[0].Name
	}
	return "draw"
}

// Download connects to the game's event stream and collects every frame.
// A stream that breaks after at least one frame yields what was read.
func Download(ctx context.Context, cfg Config, gameID string) (*Game, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	url := fmt.Sprintf(cfg.EngineURL, gameID)

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", gameID, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var info GameInfo
	var frames []FrameData

read:
	for {
		if cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			if len(frames) > 0 {
				logger.Debug("stream ended early", "game", gameID, "frames", len(frames), "err", err)
				break
			}
			return nil, fmt.Errorf("read %s: %w", gameID, err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Warn("failed to parse event", "game", gameID, "err", err)
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				logger.Warn("failed to parse game_info", "game", gameID, "err", err)
			}
		case "frame":
			var frame FrameData
			if err := json.Unmarshal(event.Data, &frame); err != nil {
				logger.Warn("failed to parse frame", "game", gameID, "err", err)
				continue
			}
			frames = append(frames, frame)
		case "game_end":
			break read
		}
	}

	if len(frames) == 0 {
		return nil, errors.New("no frames in " + gameID)
	}

	g := &Game{
		ID:      gameID,
		Ruleset: info.Ruleset.Name,
		Width:   info.Game.Width,
		Height:  info.Game.Height,
		Frames:  frames,
	}
	if g.Width == 0 || g.Height == 0 {
		g.Width, g.Height = frames[0].Board.Width, frames[0].Board.Height
	}
	if g.Width == 0 || g.Height == 0 {
		g.Width, g.Height = DefaultBoardSize, DefaultBoardSize
	}
	if len(info.Ruleset.Settings) > 0 {
		var settings api.RulesetSettings
		if err := json.Unmarshal(info.Ruleset.Settings, &settings); err != nil {
			logger.Warn("failed to parse ruleset settings", "game", gameID, "err", err)
		}
		g.HazardDamage = settings.HazardDamagePerTurn
	}
	return g, nil
}
