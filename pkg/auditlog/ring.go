package auditlog

import "sync"

// DefaultRingSize is the number of entries clients retain locally.
const DefaultRingSize = 10

// Ring is a fixed-capacity, newest-first buffer of audit entries.
// Pushing beyond capacity evicts the oldest entry. All methods are safe
// for concurrent use.
type Ring struct {
	mu      sync.RWMutex
	entries []Entry
	cap     int
}

// NewRing creates a ring holding at most size entries.
// Sizes below 1 fall back to DefaultRingSize.
func NewRing(size int) *Ring {
	if size < 1 {
		size = DefaultRingSize
	}
	return &Ring{
		entries: make([]Entry, 0, size),
		cap:     size,
	}
}

// Push prepends an entry, evicting the oldest when the ring is full.
func (r *Ring) Push(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == r.cap {
		r.entries = r.entries[:r.cap-1]
	}
	r.entries = append([]Entry{e}, r.entries...)
}

// Entries returns a newest-first copy of the buffered entries.
func (r *Ring) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of buffered entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear discards all buffered entries. Called on principal change so one
// user's audit trail never leaks into the next session.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}
