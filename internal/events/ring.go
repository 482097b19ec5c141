package events

import "sync"

// Ring is a bounded log buffer: long runs produce an unbounded stream of
// log lines and the status snapshot must not grow with them. When full,
// the oldest entry is evicted.
type Ring struct {
	mu      sync.Mutex
	entries []LogEntry
	start   int
	size    int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 500
	}
	return &Ring{entries: make([]LogEntry, capacity)}
}

func (r *Ring) Append(entry LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.start + r.size) % len(r.entries)
	r.entries[idx] = entry
	if r.size < len(r.entries) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.entries)
	}
}

// Snapshot returns the buffered entries oldest-first.
func (r *Ring) Snapshot() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LogEntry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

// Reset discards all buffered entries.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.size = 0
}
