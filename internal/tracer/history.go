package tracer

import (
	"sync"
	"time"
)

// HistoryEntry summarizes one finished trace session for the shell's
// activity feed. Kept in memory only; nothing is persisted.
type HistoryEntry struct {
	SessionID string        `json:"session_id"`
	Target    string        `json:"target"`
	Status    Status        `json:"status"` // complete, or idle for a failed trace
	HopCount  int           `json:"hop_count"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
	When      time.Time     `json:"when"`
}

// History is a fixed-capacity ring of recent session summaries. When
// full, adding overwrites the oldest entry.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	head    int // next write position
	size    int
}

// DefaultHistoryCapacity bounds the activity feed.
const DefaultHistoryCapacity = 25

// NewHistory creates a ring holding up to capacity entries; a
// non-positive capacity falls back to the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{entries: make([]HistoryEntry, capacity)}
}

// Add records a finished session, evicting the oldest entry when full.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.head] = e
	h.head = (h.head + 1) % len(h.entries)
	if h.size < len(h.entries) {
		h.size++
	}
}

// Recent returns up to n entries, newest first. The slice is a copy.
func (h *History) Recent(n int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]HistoryEntry, n)
	for i := 0; i < n; i++ {
		idx := (h.head - 1 - i + len(h.entries)) % len(h.entries)
		out[i] = h.entries[idx]
	}
	return out
}

// Size returns the number of entries currently held.
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
