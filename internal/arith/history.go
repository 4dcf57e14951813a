package arith

import (
	"sync"

	"multitool/internal/cache"
)

// DefaultHistorySize is how many results each session keeps.
const DefaultHistorySize = 5

// History keeps the most recent calculator entries per session key, newest
// first. Entries live in a cache so idle sessions expire with it.
type History struct {
	mu    sync.Mutex
	store cache.Cache[[]string]
	size  int
}

func NewHistory(store cache.Cache[[]string], size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{store: store, size: size}
}

// Add prepends entry for key and returns the updated history.
func (h *History) Add(key, entry string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, _ := h.store.Get(key)
	next := make([]string, 0, h.size)
	next = append(next, entry)
	for _, e := range prev {
		if len(next) == h.size {
			break
		}
		next = append(next, e)
	}
	h.store.Set(key, next)
	return clone(next)
}

// Get returns a copy of the history for key.
func (h *History) Get(key string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, _ := h.store.Get(key)
	return clone(entries)
}

func (h *History) Clear(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store.Delete(key)
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
