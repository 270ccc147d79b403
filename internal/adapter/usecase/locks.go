package usecase

import "sync"

// entityLocks serializes mutations per entity key. A lock is held across the
// external transfer call, so the check-then-commit sequence of a value-moving
// operation can never interleave with another request touching the same
// campaign or provider.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key, creating it on first use, and returns the
// matching unlock function. Locks are never removed; the key space is bounded
// by the number of entities.
func (e *entityLocks) acquire(key string) func() {
	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}
