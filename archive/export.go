package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brensch/snekgrid/store"
)

// Exporter copies finished games from the turn store into Parquet batches.
type Exporter struct {
	DB         *store.DB
	Log        *ExportLog
	OutDir     string
	FlushGames int
	Logger     *slog.Logger
}

type ExportSummary struct {
	GamesExported int
	GamesSkipped  int
	GamesFailed   int
	Batches       []string
	RowsWritten   int
}

// Run exports every finished game not yet in the export log. A batch is
// flushed every FlushGames games and once more at the end; game IDs are
// logged only after their batch is on disk.
func (e *Exporter) Run(ctx context.Context) (ExportSummary, error) {
	var sum ExportSummary
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	flushGames := e.FlushGames
	if flushGames <= 0 {
		flushGames = 1000
	}

	ids, err := e.DB.FinishedGameIDs()
	if err != nil {
		return sum, fmt.Errorf("list finished games: %w", err)
	}

	rowsBuf := make([]TurnRow, 0, 1024)
	gamesBuf := make([]string, 0, flushGames)

	flush := func(reason string) error {
		if len(gamesBuf) == 0 {
			return nil
		}
		path, err := WriteBatchAtomic(e.OutDir, rowsBuf)
		if err != nil {
			return fmt.Errorf("flush (%s): %w", reason, err)
		}
		if err := e.Log.AddMany(gamesBuf); err != nil {
			// The batch is on disk; a later run may export these games again.
			logger.Warn("export log append failed", "reason", reason, "err", err)
		}
		logger.Info("flushed batch", "reason", reason, "games", len(gamesBuf), "rows", len(rowsBuf), "path", path)

		sum.Batches = append(sum.Batches, path)
		sum.RowsWritten += len(rowsBuf)
		rowsBuf = rowsBuf[:0]
		gamesBuf = gamesBuf[:0]
		return nil
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			if ferr := flush("cancelled"); ferr != nil {
				return sum, ferr
			}
			return sum, err
		}
		if e.Log.Has(id) {
			sum.GamesSkipped++
			continue
		}

		rows, err := e.gameRows(id)
		if err != nil {
			sum.GamesFailed++
			logger.Warn("skipping game", "game", id, "err", err)
			continue
		}
		if len(rows) == 0 {
			sum.GamesSkipped++
			continue
		}

		rowsBuf = append(rowsBuf, rows...)
		gamesBuf = append(gamesBuf, id)
		sum.GamesExported++

		if len(gamesBuf) >= flushGames {
			if err := flush("count"); err != nil {
				return sum, err
			}
		}
	}

	return sum, flush("final")
}

func (e *Exporter) gameRows(id string) ([]TurnRow, error) {
	g, err := e.DB.GetGame(id)
	if err != nil {
		return nil, err
	}
	turns, err := e.DB.GameTurns(id)
	if err != nil {
		return nil, err
	}

	rows := make([]TurnRow, 0, len(turns))
	for _, t := range turns {
		row := NewTurnRow(id, t.Turn, t.Board)
		row.Ruleset = g.Ruleset
		row.Result = g.Result
		row.YouID = t.YouID
		row.Move = t.Move
		row.SafeMoves = t.SafeMoves
		row.ElapsedUS = t.Elapsed.Microseconds()
		rows = append(rows, row)
	}
	return rows, nil
}
