package pool

import (
	"sync"
	"sync/atomic"
)

// Interner returns one canonical copy per distinct string. Dataset
// string columns are dominated by small categorical vocabularies
// (statuses, areas, cuisines, day names), so decoding a large
// directory repeats the same few hundred values millions of times;
// interning keeps a single allocation per value.
//
// The map is capped. Once full, unseen strings pass through
// unchanged, which bounds memory when a column turns out to be
// high-cardinality after all.
type Interner struct {
	mu      sync.RWMutex
	strings map[string]string
	cap     int
	hits    int64
	misses  int64
}

// NewInterner creates an interner holding at most capacity distinct strings
func NewInterner(capacity int) *Interner {
	return &Interner{
		strings: make(map[string]string, 256),
		cap:     capacity,
	}
}

// Intern returns the canonical copy of s, adding it when unseen and
// there is room left.
func (in *Interner) Intern(s string) string {
	in.mu.RLock()
	canonical, ok := in.strings[s]
	in.mu.RUnlock()
	if ok {
		atomic.AddInt64(&in.hits, 1)
		return canonical
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if canonical, ok := in.strings[s]; ok {
		atomic.AddInt64(&in.hits, 1)
		return canonical
	}
	atomic.AddInt64(&in.misses, 1)
	if len(in.strings) >= in.cap {
		return s
	}
	in.strings[s] = s
	return s
}

// Stats reports the distinct strings held and the hit/miss counts
func (in *Interner) Stats() (size int, hits, misses int64) {
	in.mu.RLock()
	size = len(in.strings)
	in.mu.RUnlock()
	return size, atomic.LoadInt64(&in.hits), atomic.LoadInt64(&in.misses)
}

// Clear drops all held strings and counters. Intended for tests.
func (in *Interner) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.strings = make(map[string]string, 256)
	atomic.StoreInt64(&in.hits, 0)
	atomic.StoreInt64(&in.misses, 0)
}

// defaultInterner backs the package-level Intern used by the dataset
// decode path. The cap comfortably covers every categorical vocabulary
// Forklift generates.
var defaultInterner = NewInterner(1 << 14)

// Intern returns the canonical copy of s from the shared interner
func Intern(s string) string {
	return defaultInterner.Intern(s)
}
