// Package archive exports recorded games to Parquet for offline analysis.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/snekgrid/game"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const schemaName = "decision_turn_v1"

// TurnRow is one (game, turn) decision snapshot.
//
// Coordinates are stored as parallel x/y columns, which compresses far
// better than nested structs. SafeMoves uses the wire move names.
type TurnRow struct {
	GameID  string `parquet:"game_id,dict"`
	Ruleset string `parquet:"ruleset,dict"`
	Result  string `parquet:"result,dict"`
	Turn    int32  `parquet:"turn"`
	Width   int32  `parquet:"width"`
	Height  int32  `parquet:"height"`

	FoodX []int32 `parquet:"food_x"`
	FoodY []int32 `parquet:"food_y"`

	HazardX []int32 `parquet:"hazard_x"`
	HazardY []int32 `parquet:"hazard_y"`

	Snakes []ArchiveSnake `parquet:"snakes"`

	YouID     string   `parquet:"you_id,dict"`
	Move      string   `parquet:"move,dict"`
	SafeMoves []string `parquet:"safe_moves"`
	ElapsedUS int64    `parquet:"elapsed_us"`
}

type ArchiveSnake struct {
	ID     string  `parquet:"id,dict"`
	Health int32   `parquet:"health"`
	Length int32   `parquet:"length"`
	BodyX  []int32 `parquet:"body_x"`
	BodyY  []int32 `parquet:"body_y"`
}

// NewTurnRow flattens a board into a row.
func NewTurnRow(gameID string, turn int, board game.Board) TurnRow {
	row := TurnRow{
		GameID: gameID,
		Turn:   int32(turn),
		Width:  int32(board.Width),
		Height: int32(board.Height),
	}
	row.FoodX, row.FoodY = splitCoords(board.Food)
	row.HazardX, row.HazardY = splitCoords(board.Hazards)

	row.Snakes = make([]ArchiveSnake, len(board.Snakes))
	for i, s := range board.Snakes {
		row.Snakes[i] = ArchiveSnake{ID: s.ID, Health: int32(s.Health), Length: int32(s.Length)}
		row.Snakes[i].BodyX, row.Snakes[i].BodyY = splitCoords(s.Body)
	}
	return row
}

// Board rebuilds the board stored in the row.
func (r TurnRow) Board() game.Board {
	b := game.Board{
		Width:   int(r.Width),
		Height:  int(r.Height),
		Food:    joinCoords(r.FoodX, r.FoodY),
		Hazards: joinCoords(r.HazardX, r.HazardY),
		Snakes:  make([]game.Snake, len(r.Snakes)),
	}
	for i, s := range r.Snakes {
		body := joinCoords(s.BodyX, s.BodyY)
		b.Snakes[i] = game.Snake{ID: s.ID, Health: int(s.Health), Length: int(s.Length), Body: body}
		if len(body) > 0 {
			b.Snakes[i].Head = body[0]
		}
	}
	return b
}

func splitCoords(cs []game.Coord) ([]int32, []int32) {
	xs := make([]int32, len(cs))
	ys := make([]int32, len(cs))
	for i, c := range cs {
		xs[i], ys[i] = int32(c.X), int32(c.Y)
	}
	return xs, ys
}

func joinCoords(xs, ys []int32) []game.Coord {
	n := min(len(xs), len(ys))
	cs := make([]game.Coord, n)
	for i := 0; i < n; i++ {
		cs[i] = game.Coord{X: int(xs[i]), Y: int(ys[i])}
	}
	return cs
}

// WriteBatchAtomic writes a Parquet file into outDir/tmp and then
// atomically moves it into outDir, so readers never observe a partial file.
// The returned path is the final parquet file path.
func WriteBatchAtomic(outDir string, rows []TurnRow) (string, error) {
	if len(rows) == 0 {
		return "", errors.New("no rows to write")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

// ReadTurns loads every row of a batch file.
func ReadTurns(path string) ([]TurnRow, error) {
	rows, err := parquet.ReadFile[TurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
