package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ExportLog tracks which game IDs have already been exported.
// It is backed by an append-only file with one game ID per line, read into
// memory on open. A partial last line left by a crash is truncated away
// so the next append starts on a fresh line.
type ExportLog struct {
	mu       sync.RWMutex
	file     *os.File
	exported map[string]struct{}
}

func OpenExportLog(path string) (*ExportLog, error) {
	if path == "" {
		return nil, errors.New("export log path is required")
	}

	exported := make(map[string]struct{})
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	if cut := bytes.LastIndexByte(data, '\n') + 1; cut < len(data) {
		if err := os.Truncate(path, int64(cut)); err != nil {
			return nil, fmt.Errorf("truncate partial line: %w", err)
		}
		data = data[:cut]
	}
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			exported[id] = struct{}{}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &ExportLog{file: file, exported: exported}, nil
}

func (l *ExportLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *ExportLog) Has(gameID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.exported[gameID]
	return ok
}

func (l *ExportLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.exported)
}

// AddMany appends game IDs and syncs once. Known and empty IDs are skipped.
func (l *ExportLog) AddMany(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New("export log is closed")
	}

	added := 0
	for _, id := range gameIDs {
		if id == "" {
			continue
		}
		if _, ok := l.exported[id]; ok {
			continue
		}
		if _, err := l.file.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		l.exported[id] = struct{}{}
		added++
	}

	if added == 0 {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}
