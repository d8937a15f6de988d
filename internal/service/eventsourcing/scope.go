package eventsourcing

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// scopeLocks serializes batches per owner. Each active owner holds a
// weight-1 semaphore; entries are dropped once nobody holds or waits on them.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*scopeLock)}
}

// acquire blocks until the owner's scope is free or ctx is done. The
// returned release must be called exactly once.
func (l *scopeLocks) acquire(ctx context.Context, owner string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[owner]
	if !ok {
		lock = &scopeLock{sem: semaphore.NewWeighted(1)}
		l.locks[owner] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.unref(owner, lock)
		return nil, err
	}

	return func() {
		lock.sem.Release(1)
		l.unref(owner, lock)
	}, nil
}

func (l *scopeLocks) unref(owner string, lock *scopeLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, owner)
	}
}
