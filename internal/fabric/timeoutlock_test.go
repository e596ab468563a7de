package fabric

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutMutex_LockUnlockRoundTrip(t *testing.T) {
	m := newTimeoutMutex()
	ctx := context.Background()

	require := assert.New(t)
	require.True(m.TryLock(ctx))
	m.Unlock()
	require.True(m.TryLock(ctx))
	m.Unlock()
}

func TestTimeoutMutex_TryLockTimesOutWhileHeld(t *testing.T) {
	m := newTimeoutMutex()
	ctx := context.Background()
	assert.True(t, m.TryLock(ctx))
	defer m.Unlock()

	shortCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, m.TryLock(shortCtx))
}
