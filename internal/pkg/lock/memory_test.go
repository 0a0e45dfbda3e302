package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SingleHolder(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	token, ok, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	_, ok, _ = locker.Acquire(ctx, "other", time.Minute)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, locker.Release(ctx, "k", token))
	_, ok, _ = locker.Acquire(ctx, "k", time.Minute)
	assert.True(t, ok, "acquire succeeds after release")
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	locker := NewMemoryLocker()
	locker.now = func() time.Time { return now }

	stale, ok, _ := locker.Acquire(ctx, "k", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	fresh, ok, _ := locker.Acquire(ctx, "k", time.Minute)
	require.True(t, ok, "expired lock can be taken over")

	// The previous holder's release must not free the new holder's lock.
	require.NoError(t, locker.Release(ctx, "k", stale))
	_, ok, _ = locker.Acquire(ctx, "k", time.Minute)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "k", fresh))
}

func TestMemoryLocker_Concurrent(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := locker.Acquire(ctx, "k", time.Minute); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
