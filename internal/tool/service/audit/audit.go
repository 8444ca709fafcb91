// Package audit appends one JSON line per workspace mutation to a log file.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Actions recorded in the trail.
const (
	ActionWrite      = "write"
	ActionCreate     = "create"
	ActionDelete     = "delete"
	ActionMove       = "move"
	ActionApplyPatch = "applyPatch"
	ActionBatchEdit  = "batchEdit"
	ActionFormat     = "format"
)

// Entry is one line of the audit trail.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	File      string    `json:"file"`
	OldSize   int64     `json:"oldSize"`
	NewSize   int64     `json:"newSize"`
}

// Log is an append-only audit trail. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewLog creates a log writing to path. The file and its directory are created on first write.
func NewLog(path string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{path: path, logger: logger, now: time.Now}
}

// Path returns the file the trail is written to.
func (l *Log) Path() string {
	return l.path
}

// Record appends an entry. A failure to write the trail never fails the
// mutation that was already performed; it is logged instead.
func (l *Log) Record(action, file string, oldSize, newSize int64) {
	entry := Entry{
		Timestamp: l.now().UTC(),
		Action:    action,
		File:      file,
		OldSize:   oldSize,
		NewSize:   newSize,
	}
	if err := l.Append(entry); err != nil {
		l.logger.Warn("audit write failed",
			zap.String("action", action),
			zap.String("file", file),
			zap.Error(err))
	}
}

// Append writes entry as a single JSON line.
func (l *Log) Append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append audit entry: %w", err)
	}
	return f.Close()
}

// ReadEntries parses every entry of the trail at path. A missing file yields no entries.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
