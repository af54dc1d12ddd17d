package ingest

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ActivityLog is the append-only, line-oriented record of every lifecycle
// transition during a run. It exists for operational diagnosis and manual
// resumption; the driver never reads it back. Each line carries an
// RFC3339 timestamp.
type ActivityLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer

	now func() time.Time
}

// OpenActivityLog opens (or creates) the activity log file in append mode.
func OpenActivityLog(path string) (*ActivityLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	return &ActivityLog{w: f, c: f, now: time.Now}, nil
}

// NewActivityLog writes to an arbitrary writer; used in tests.
func NewActivityLog(w io.Writer) *ActivityLog {
	return &ActivityLog{w: w, now: time.Now}
}

// Printf appends one timestamped line.
func (l *ActivityLog) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.now().UTC().Format(time.RFC3339)
	fmt.Fprintf(l.w, "%s %s\n", ts, fmt.Sprintf(format, args...))
}

// Close closes the underlying file if there is one.
func (l *ActivityLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
