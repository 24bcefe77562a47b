package ctxsync

import (
	"context"
	"sync"
)

type tryLocker interface {
	TryLock() bool
}

// Lock acquires l, giving up when ctx is done first.
//
// If ctx wins the race the lock is still acquired in the background and
// released immediately, so l is never left held on the caller's behalf.
func Lock(ctx context.Context, l sync.Locker) error {
	if tl, ok := l.(tryLocker); ok && tl.TryLock() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		l.Lock()
	}()

	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		go func() {
			<-acquired
			l.Unlock()
		}()
		return ctx.Err()
	}
}
