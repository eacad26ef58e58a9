package feedback

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
)

// FileLog is the default Store: a JSON-lines file opened in append mode. One
// marshalled entry plus newline is written per Append under a mutex, so
// concurrent submissions can never interleave bytes, and a marshal failure
// writes nothing at all.
type FileLog struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *slog.Logger
}

// OpenFileLog opens (creating if needed) the append-only log at path.
func OpenFileLog(path string) (*FileLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating feedback directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening feedback log %s: %w", path, err)
	}
	return &FileLog{
		path:   path,
		file:   f,
		logger: slog.Default().With("component", "feedback-filelog"),
	}, nil
}

// Append writes e as one JSON line. Prior entries are never rewritten or
// reordered.
func (l *FileLog) Append(ctx context.Context, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: marshaling feedback entry: %v", apperrors.ErrStorage, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("%w: appending feedback entry: %v", apperrors.ErrStorage, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing feedback log: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// ListByProduct scans the log and returns entries for the given key in append
// order. A line that fails to parse is skipped with a warning so one bad
// record does not hide the rest.
func (l *FileLog) ListByProduct(ctx context.Context, productKey string) ([]Entry, error) {
	return l.scan(func(e Entry) bool { return e.ProductKey == productKey })
}

// Count returns the total number of entries in the log.
func (l *FileLog) Count(ctx context.Context) (int, error) {
	entries, err := l.scan(func(Entry) bool { return true })
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (l *FileLog) scan(keep func(Entry) bool) ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: opening feedback log: %v", apperrors.ErrStorage, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			l.logger.Warn("skipping unparseable feedback line", "error", err)
			continue
		}
		if keep(e) {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading feedback log: %v", apperrors.ErrStorage, err)
	}
	return entries, nil
}

// Close closes the underlying file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
