// Package logbuf keeps a bounded in-memory window of recent log
// entries so the admin API can expose them without touching disk.
package logbuf

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is a single log entry captured from slog.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Buffer is a thread-safe ring buffer of log entries. Once full, the
// oldest entry is overwritten.
type Buffer struct {
	mu   sync.Mutex
	ring []Entry
	next int
	full bool
}

// New creates a buffer holding up to capacity entries.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{ring: make([]Entry, capacity)}
}

// Append adds an entry, evicting the oldest when the buffer is full.
func (b *Buffer) Append(e Entry) {
	b.mu.Lock()
	b.ring[b.next] = e
	b.next++
	if b.next == len(b.ring) {
		b.next = 0
		b.full = true
	}
	b.mu.Unlock()
}

// Len reports how many entries are currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.ring)
	}
	return b.next
}

// Query returns entries at or above minLevel that are not older than
// since, oldest first. A zero since matches everything; limit <= 0
// returns all matches. When more than limit entries match, the newest
// ones win.
func (b *Buffer) Query(since time.Time, minLevel slog.Level, limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.next
	start := 0
	if b.full {
		n = len(b.ring)
		start = b.next
	}

	var out []Entry
	for i := range n {
		e := b.ring[(start+i)%len(b.ring)]
		if !since.IsZero() && e.Time.Before(since) {
			continue
		}
		if levelOf(e.Level) < minLevel {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func levelOf(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
