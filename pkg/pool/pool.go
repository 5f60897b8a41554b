// Package pool provides the object reuse helpers shared across
// Forklift. Pool is the single typed pool implementation; Interner
// deduplicates the low-cardinality strings decoded from dataset files.
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a typed object pool wrapping sync.Pool. The optional reset
// function runs before an object re-enters the pool. Safe for
// concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
	}
}

// New creates a pool with a factory and an optional reset function.
//
//	buffers := pool.New(
//	    func() *bytes.Buffer { return &bytes.Buffer{} },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
func New[T any](factory func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return factory()
	}
	return p
}

// Get retrieves an object, allocating through the factory when the
// pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	return p.pool.Get().(T)
}

// Put resets the object and returns it to the pool
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats reports how many objects the pool has allocated and how many
// are currently checked out.
func (p *Pool[T]) Stats() (allocated, inUse int64) {
	return atomic.LoadInt64(&p.stats.allocated), atomic.LoadInt64(&p.stats.inUse)
}
