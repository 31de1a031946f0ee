// Package store keeps a history of games and per-turn decisions in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brensch/snekgrid/game"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with thread-safe operations
type DB struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Game is one recorded game.
type Game struct {
	ID         string
	Ruleset    string
	Width      int
	Height     int
	YouID      string
	Result     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// Turn is one recorded /move decision.
type Turn struct {
	GameID    string
	Turn      int
	YouID     string
	Health    int
	Length    int
	Move      string
	SafeMoves []string
	Board     game.Board
	Elapsed   time.Duration
}

// New opens (creating if needed) the database at dbPath and initializes the schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite only supports one writer
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		ruleset TEXT,
		width INTEGER,
		height INTEGER,
		you_id TEXT,
		result TEXT DEFAULT '',
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS turns (
		game_id TEXT,
		turn INTEGER,
		you_id TEXT,
		health INTEGER,
		length INTEGER,
		move TEXT,
		safe_moves TEXT,               -- comma separated, wire order
		board_json TEXT,
		elapsed_us INTEGER,
		PRIMARY KEY (game_id, turn),
		FOREIGN KEY(game_id) REFERENCES games(id)
	);

	CREATE INDEX IF NOT EXISTS idx_games_finished_at ON games(finished_at);
	`

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// StartGame records a new game. Restarting a known game is a no-op.
func (db *DB) StartGame(g Game) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO games (id, ruleset, width, height, you_id) VALUES (?, ?, ?, ?, ?)",
		g.ID, g.Ruleset, g.Width, g.Height, g.YouID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", g.ID, err)
	}
	return nil
}

// RecordTurn stores one decision. A game row is created if /start was missed.
func (db *DB) RecordTurn(t Turn) error {
	boardJSON, err := json.Marshal(t.Board)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO games (id, width, height, you_id) VALUES (?, ?, ?, ?)",
		t.GameID, t.Board.Width, t.Board.Height, t.YouID,
	); err != nil {
		return fmt.Errorf("failed to insert game %s: %w", t.GameID, err)
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO turns (game_id, turn, you_id, health, length, move, safe_moves, board_json, elapsed_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.GameID, t.Turn, t.YouID, t.Health, t.Length, t.Move,
		strings.Join(t.SafeMoves, ","), string(boardJSON), t.Elapsed.Microseconds(),
	); err != nil {
		return fmt.Errorf("failed to insert turn %d: %w", t.Turn, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FinishGame stores the game result (won, lost or draw).
func (db *DB) FinishGame(gameID, result string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec("UPDATE games SET result = ?, finished_at = ? WHERE id = ?", result, at.UTC(), gameID)
	if err != nil {
		return fmt.Errorf("failed to finish game %s: %w", gameID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish game %s: %w", gameID, ErrUnknownGame)
	}
	return nil
}

var ErrUnknownGame = errors.New("unknown game")

// GetGame returns one game.
func (db *DB) GetGame(gameID string) (Game, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var g Game
	var ruleset, youID sql.NullString
	err := db.conn.QueryRow(
		"SELECT id, ruleset, width, height, you_id, result, started_at, finished_at FROM games WHERE id = ?",
		gameID,
	).Scan(&g.ID, &ruleset, &g.Width, &g.Height, &youID, &g.Result, &g.StartedAt, &g.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("game %s: %w", gameID, ErrUnknownGame)
	}
	if err != nil {
		return Game{}, err
	}
	g.Ruleset, g.YouID = ruleset.String, youID.String
	return g, nil
}

// GameTurns returns all turns of a game in turn order.
func (db *DB) GameTurns(gameID string) ([]Turn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT game_id, turn, you_id, health, length, move, safe_moves, board_json, elapsed_us
		 FROM turns WHERE game_id = ? ORDER BY turn`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var safe, boardJSON string
		var elapsedUS int64
		if err := rows.Scan(&t.GameID, &t.Turn, &t.YouID, &t.Health, &t.Length, &t.Move, &safe, &boardJSON, &elapsedUS); err != nil {
			return nil, err
		}
		if safe != "" {
			t.SafeMoves = strings.Split(safe, ",")
		}
		if err := json.Unmarshal([]byte(boardJSON), &t.Board); err != nil {
			return nil, fmt.Errorf("decode board for turn %d: %w", t.Turn, err)
		}
		t.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// FinishedGameIDs returns the IDs of all games with a result, oldest first.
func (db *DB) FinishedGameIDs() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query("SELECT id FROM games WHERE finished_at IS NOT NULL ORDER BY finished_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats returns statistics about the database
func (db *DB) Stats() (totalGames, finishedGames, wins, totalTurns int64, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	err = db.conn.QueryRow("SELECT COUNT(*) FROM games").Scan(&totalGames)
	if err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM games WHERE finished_at IS NOT NULL").Scan(&finishedGames)
	if err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM games WHERE result = 'won'").Scan(&wins)
	if err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM turns").Scan(&totalTurns)
	return
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
