package recruitment

import (
	"sync"

	"github.com/google/uuid"
)

// LockTable serializes operations per candidate so no two transitions run
// concurrently on the same record. Each candidate is a single-writer
// resource; different candidates proceed independently.
type LockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the lock for one candidate ID and returns the release
// function. Entries are reference counted and removed once unused.
func (t *LockTable) Lock(id uuid.UUID) (unlock func()) {
	t.mu.Lock()
	e, ok := t.locks[id]
	if !ok {
		e = &entry{}
		t.locks[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}
