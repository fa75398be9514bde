package sheetsync

import (
	"context"
	"sync"
)

// documentLocks serializes syncs per spreadsheet id so one caller's clear can
// never interleave with another caller's write on the same document.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	sem  chan struct{}
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*documentLock)}
}

// Lock blocks until the document is free or ctx is done.
// The returned func releases the lock and must be called exactly once.
func (l *documentLocks) Lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	dl, ok := l.locks[id]
	if !ok {
		dl = &documentLock{sem: make(chan struct{}, 1)}
		l.locks[id] = dl
	}
	dl.refs++
	l.mu.Unlock()

	select {
	case dl.sem <- struct{}{}:
		return func() {
			<-dl.sem
			l.release(id, dl)
		}, nil
	case <-ctx.Done():
		l.release(id, dl)
		return nil, ctx.Err()
	}
}

func (l *documentLocks) release(id string, dl *documentLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dl.refs--
	if dl.refs == 0 {
		delete(l.locks, id)
	}
}

// held returns the number of ids with a holder or waiter
func (l *documentLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
