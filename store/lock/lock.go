// Package lock provides per-page reader/writer locks keyed by page index.
//
// A Registry creates locks on first use and drops them once they have been
// idle for a while. Readers share a page; a writer first reserves the page
// against other writers, which also holds back new readers, then waits for
// in-flight readers to drain. Waiting is done on a condition variable.
package lock

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is how long an unused lock stays registered.
const DefaultIdleTimeout = 10 * time.Second

// Unlock releases a lock obtained from a Registry. Calling it more than
// once is a no-op.
type Unlock func()

type pageLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	readers int
	writer  bool

	// Guarded by Registry.mu.
	refs     int
	lastUsed time.Time
}

// Registry maps page indices to their locks.
type Registry struct {
	mu    sync.Mutex
	locks map[uint32]*pageLock
	idle  time.Duration
	now   func() time.Time
}

// NewRegistry returns an empty registry that treats locks untouched for
// idle as removable. A non-positive idle selects DefaultIdleTimeout.
func NewRegistry(idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		locks: make(map[uint32]*pageLock),
		idle:  idle,
		now:   time.Now,
	}
}

// acquire returns the lock for ix with a reference taken, so Sweep cannot
// remove it while the caller waits on or holds it.
func (r *Registry) acquire(ix uint32) *pageLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[ix]
	if !ok {
		l = &pageLock{}
		l.cond = sync.NewCond(&l.mu)
		r.locks[ix] = l
	}
	l.refs++
	l.lastUsed = r.now()
	return l
}

func (r *Registry) release(l *pageLock) {
	r.mu.Lock()
	l.refs--
	l.lastUsed = r.now()
	r.mu.Unlock()
}

// RLock takes a shared lock on page ix.
func (r *Registry) RLock(ix uint32) Unlock {
	l := r.acquire(ix)
	l.mu.Lock()
	for l.writer {
		l.cond.Wait()
	}
	l.readers++
	l.mu.Unlock()

	return sync.OnceFunc(func() {
		l.mu.Lock()
		l.readers--
		if l.readers == 0 {
			l.cond.Broadcast()
		}
		l.mu.Unlock()
		r.release(l)
	})
}

// Lock takes an exclusive lock on page ix.
func (r *Registry) Lock(ix uint32) Unlock {
	l := r.acquire(ix)
	l.mu.Lock()
	for l.writer {
		l.cond.Wait()
	}
	l.writer = true
	for l.readers > 0 {
		l.cond.Wait()
	}
	l.mu.Unlock()

	return sync.OnceFunc(func() {
		l.mu.Lock()
		l.writer = false
		l.cond.Broadcast()
		l.mu.Unlock()
		r.release(l)
	})
}

// Sweep removes locks with no holders, no waiters and no activity within
// the idle window. It returns the number of locks removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idle)
	removed := 0
	for ix, l := range r.locks {
		if l.refs > 0 || l.lastUsed.After(cutoff) {
			continue
		}
		l.mu.Lock()
		busy := l.readers > 0 || l.writer
		l.mu.Unlock()
		if busy {
			continue
		}
		delete(r.locks, ix)
		removed++
	}
	return removed
}

// Len reports how many locks are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
