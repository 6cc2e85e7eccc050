package world

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when the world mutex could not be acquired within
// its bounded wait.
var ErrLockTimeout = errors.New("world: lock timeout")

// Mutex is the exclusive world lock. Unlike sync.Mutex it supports a bounded
// wait and cancellation through a context. It is not reentrant.
type Mutex struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewMutex creates a world mutex whose Lock gives up after timeout. A zero
// timeout waits until ctx is done.
func NewMutex(timeout time.Duration) *Mutex {
	return &Mutex{sem: semaphore.NewWeighted(1), timeout: timeout}
}

// Lock acquires the mutex. It returns ErrLockTimeout when the bounded wait
// elapses, or ctx.Err() when ctx is done first.
func (m *Mutex) Lock(ctx context.Context) error {
	if m.timeout <= 0 {
		return m.sem.Acquire(ctx, 1)
	}
	wctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLockTimeout
	}
	return nil
}

// TryLock acquires the mutex only if it is free.
func (m *Mutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	m.sem.Release(1)
}
