package controller

import (
	"sync"
	"time"
)

type SongHistoryEntry struct {
	SongID   string    `json:"song_id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	PlayedAt time.Time `json:"played_at"`
}

// SongHistory is a fixed-size ring of recently played songs. It lives only as
// long as its session.
type SongHistory struct {
	entries []SongHistoryEntry
	next    int
	full    bool
	mutex   sync.Mutex
}

func NewSongHistory(size int) *SongHistory {
	if size <= 0 {
		size = 1
	}
	return &SongHistory{entries: make([]SongHistoryEntry, size)}
}

func (h *SongHistory) Add(entry SongHistoryEntry) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries[h.next] = entry
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

func (h *SongHistory) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.lenLocked()
}

func (h *SongHistory) lenLocked() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// GetRecent returns up to n entries, oldest first.
func (h *SongHistory) GetRecent(n int) []SongHistoryEntry {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	size := h.lenLocked()
	if n > size {
		n = size
	}
	if n <= 0 {
		return []SongHistoryEntry{}
	}

	recent := make([]SongHistoryEntry, 0, n)
	start := (h.next - n + len(h.entries)) % len(h.entries)
	for i := 0; i < n; i++ {
		recent = append(recent, h.entries[(start+i)%len(h.entries)])
	}
	return recent
}
