package logging

import (
	"log/slog"
	"sync"
	"time"
)

// TraceEntry is a log record retained by a TraceBuffer.
type TraceEntry struct {
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Level     string            `json:"level" yaml:"level"`
	Source    string            `json:"source" yaml:"source"` // component, e.g. "chainindex"
	Message   string            `json:"message" yaml:"message"`
	Extra     map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// TraceBuffer is a thread-safe circular buffer of recent log records.
type TraceBuffer struct {
	entries []TraceEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// NewTraceBuffer creates a buffer holding at most size entries.
func NewTraceBuffer(size int) *TraceBuffer {
	if size < 1 {
		size = 1
	}
	return &TraceBuffer{
		entries: make([]TraceEntry, size),
		size:    size,
	}
}

// Add appends an entry, overwriting the oldest one when full.
func (tb *TraceBuffer) Add(entry TraceEntry) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.entries[tb.head] = entry
	tb.head = (tb.head + 1) % tb.size
	if tb.count < tb.size {
		tb.count++
	}
}

// GetAll returns all entries in chronological order.
func (tb *TraceBuffer) GetAll() []TraceEntry {
	return tb.GetLast(tb.Count())
}

// GetLast returns the last n entries in chronological order.
func (tb *TraceBuffer) GetLast(n int) []TraceEntry {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	if n > tb.count {
		n = tb.count
	}
	if n <= 0 {
		return []TraceEntry{}
	}

	result := make([]TraceEntry, n)
	start := (tb.head - n + tb.size) % tb.size
	for i := 0; i < n; i++ {
		result[i] = tb.entries[(start+i)%tb.size]
	}
	return result
}

// GetBySource returns entries from one component, oldest first.
func (tb *TraceBuffer) GetBySource(source string, limit int) []TraceEntry {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	var result []TraceEntry

	start := 0
	if tb.count == tb.size {
		start = tb.head
	}

	for i := 0; i < tb.count; i++ {
		e := tb.entries[(start+i)%tb.size]
		if e.Source == source {
			result = append(result, e)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}

	return result
}

// Count returns the number of entries in the buffer.
func (tb *TraceBuffer) Count() int {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.count
}

// Clear removes all entries from the buffer.
func (tb *TraceBuffer) Clear() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.head = 0
	tb.count = 0
}

// LevelFromSlog converts slog.Level to string
func LevelFromSlog(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return "debug"
	case level <= slog.LevelInfo:
		return "info"
	case level <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}
