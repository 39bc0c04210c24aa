// Package runlog provides the append-only audit trail written during an import.
//
// A Sink accepts free-form messages and never reports failure back to the
// caller; a broken sink must not stop limit application.
package runlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Sink is an append-only message log.
type Sink interface {
	Append(message string)
}

// Appendf formats a message and appends it to the sink.
func Appendf(s Sink, format string, args ...any) {
	if s == nil {
		return
	}
	s.Append(fmt.Sprintf(format, args...))
}

type discard struct{}

func (discard) Append(string) {}

// Discard drops every message.
var Discard Sink = discard{}

// Writer appends timestamped lines to an io.Writer.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewWriter wraps w. Write errors are ignored.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// Append writes one line.
func (w *Writer) Append(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.w, "%s %s\n", w.now().Format("2006-01-02 15:04:05.000"), message)
}

// FileSink is a Writer backed by a file opened for appending.
type FileSink struct {
	*Writer
	f *os.File
}

// OpenFile opens (or creates) path in append mode.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return &FileSink{Writer: NewWriter(f), f: f}, nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}

// Memory keeps messages in memory, for tests and for the UI's log tail.
type Memory struct {
	mu    sync.RWMutex
	lines []string
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{lines: make([]string, 0)}
}

// Append stores a message.
func (m *Memory) Append(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, message)
}

// Lines returns a copy of every stored message.
func (m *Memory) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Multi fans a message out to several sinks.
type Multi []Sink

// Append forwards the message to every non-nil sink.
func (m Multi) Append(message string) {
	for _, s := range m {
		if s != nil {
			s.Append(message)
		}
	}
}
