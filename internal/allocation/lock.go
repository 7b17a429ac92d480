package allocation

import (
	"context"
	"sync"
)

// Locker grants exclusive access to the allocation tables.  TryLock never
// waits: ok is false when someone else holds the lock.  release must be
// called exactly once after a successful TryLock.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// LocalLock serialises runs inside one process.
type LocalLock struct {
	mu sync.Mutex
}

func (l *LocalLock) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// ChainLock acquires each lock in order and backs out if any is busy.  The
// in-process lock goes first so local contention never reaches Redis.
type ChainLock []Locker

func (c ChainLock) TryLock(ctx context.Context) (func(), bool, error) {
	releases := make([]func(), 0, len(c))
	undo := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		if l == nil {
			continue
		}
		release, ok, err := l.TryLock(ctx)
		if err != nil || !ok {
			undo()
			return nil, false, err
		}
		releases = append(releases, release)
	}
	return undo, true, nil
}
