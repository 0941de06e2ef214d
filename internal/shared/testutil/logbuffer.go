// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogBuffer is a slog.Handler that captures records in memory so tests
// can assert on what a component logged.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogger returns a debug-level logger writing into a fresh buffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(buf), buf
}

func (b *LogBuffer) Enabled(context.Context, slog.Level) bool { return true }

func (b *LogBuffer) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})
	b.mu.Lock()
	b.entries = append(b.entries, entry)
	b.mu.Unlock()
	return nil
}

func (b *LogBuffer) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b *LogBuffer) WithGroup(string) slog.Handler      { return b }

// Entries returns a copy of everything captured so far.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Find returns the first entry with the given message, or nil.
func (b *LogBuffer) Find(message string) *LogEntry {
	for _, e := range b.Entries() {
		if e.Message == message {
			return &e
		}
	}
	return nil
}

// CountLevel returns how many entries were logged at the given level.
func (b *LogBuffer) CountLevel(level slog.Level) int {
	n := 0
	for _, e := range b.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
