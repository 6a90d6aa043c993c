// Package history keeps the bounded conversation history that conditions
// per-turn speech synthesis.
package history

import (
	"strings"

	"github.com/rcliao/podcaster/internal/model"
)

// DefaultCapacity is the number of entries retained when none is configured.
const DefaultCapacity = 5

// Window is a fixed-capacity FIFO of history entries backed by a circular
// buffer. It is owned by a single run and is not safe for concurrent use.
type Window struct {
	buf   []model.HistoryEntry
	start int
	size  int
}

// New returns an empty window. A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]model.HistoryEntry, capacity)}
}

// Push appends an entry, evicting the oldest one when the window is full.
func (w *Window) Push(e model.HistoryEntry) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = e
		w.size++
		return
	}
	w.buf[w.start] = e
	w.start = (w.start + 1) % len(w.buf)
}

// Recent returns up to n of the most recent entries, oldest first.
func (w *Window) Recent(n int) []model.HistoryEntry {
	if n > w.size {
		n = w.size
	}
	if n <= 0 {
		return []model.HistoryEntry{}
	}
	out := make([]model.HistoryEntry, n)
	first := w.start + w.size - n
	for i := 0; i < n; i++ {
		out[i] = w.buf[(first+i)%len(w.buf)]
	}
	return out
}

// Len returns the number of entries held.
func (w *Window) Len() int { return w.size }

// Cap returns the fixed capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Render formats entries as "Speaker 1: text Speaker 2: text".
func Render(entries []model.HistoryEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Speaker + ": " + e.Content
	}
	return strings.Join(parts, " ")
}
