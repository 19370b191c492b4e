package lifecycle

import (
	"strings"
	"sync"
)

// actionLocker serializes mutating operations per action id.
// Approve, reject, and execute each read-check-then-write status,
// which races without per-id serialization on parallel runtimes.
type actionLocker struct {
	mu    sync.Mutex
	locks map[string]*actionLockRef
}

type actionLockRef struct {
	mu   sync.Mutex
	refs int
}

func newActionLocker() *actionLocker {
	return &actionLocker{
		locks: make(map[string]*actionLockRef),
	}
}

// Lock acquires the lock for id and returns its release func.
func (l *actionLocker) Lock(id string) func() {
	if l == nil {
		return func() {}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return func() {}
	}
	l.mu.Lock()
	ref, ok := l.locks[id]
	if !ok || ref == nil {
		ref = &actionLockRef{}
		l.locks[id] = ref
	}
	ref.refs++
	l.mu.Unlock()

	ref.mu.Lock()
	return func() {
		ref.mu.Unlock()
		l.mu.Lock()
		ref.refs--
		if ref.refs <= 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
