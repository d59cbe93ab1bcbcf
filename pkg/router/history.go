package router

import "sync"

// HistoryEntry is one committed navigation.
type HistoryEntry struct {
	Path   string
	Scroll Position
}

// History is a browser-style session history.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	index   int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{index: -1}
}

// Push appends an entry after the current one, dropping forward entries.
func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], HistoryEntry{Path: path})
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry, or pushes when history is empty.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		h.entries = append(h.entries[:0], HistoryEntry{Path: path})
		h.index = 0
		return
	}
	h.entries[h.index] = HistoryEntry{Path: path}
}

// SaveScroll records the scroll position of the current entry.
func (h *History) SaveScroll(pos Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= 0 {
		h.entries[h.index].Scroll = pos
	}
}

// Peek returns the entry delta steps from the current one.
func (h *History) Peek(delta int) (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.index + delta
	if h.index < 0 || i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, false
	}
	return h.entries[i], true
}

// Go moves the current index by delta. It reports false if out of range.
func (h *History) Go(delta int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.index + delta
	if h.index < 0 || i < 0 || i >= len(h.entries) {
		return false
	}
	h.index = i
	return true
}

// Current returns the current entry.
func (h *History) Current() (HistoryEntry, bool) {
	return h.Peek(0)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
