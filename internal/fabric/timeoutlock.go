package fabric

import "context"

// timeoutMutex is a binary semaphore whose Lock can be bounded by a
// deadline: every lock acquisition uses a bounded timeout, and on timeout
// the operation returns a failure without holding state, so the caller can
// log the event and move on instead of blocking forever.
type timeoutMutex struct {
	ch chan struct{}
}

func newTimeoutMutex() *timeoutMutex {
	m := &timeoutMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

// TryLock attempts to acquire the lock before ctx is done. Returns false on
// timeout/cancellation without side effects.
func (m *timeoutMutex) TryLock(ctx context.Context) bool {
	select {
	case <-m.ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unlock releases the lock. Must only be called after a successful TryLock.
func (m *timeoutMutex) Unlock() {
	m.ch <- struct{}{}
}
