package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type run struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}
	require.NoError(t, c.Set(ctx, "run", run{ID: "abc", Count: 3}, time.Minute))

	var got run
	require.NoError(t, c.Get(ctx, "run", &got))
	assert.Equal(t, run{ID: "abc", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, "run"))
	assert.ErrorIs(t, c.Get(ctx, "run", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	tok, ok, err := c.TryLock(ctx, "lock:unit:BTC/USD:1D", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.TryLock(ctx, "lock:unit:BTC/USD:1D", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, c.Unlock(ctx, "lock:unit:BTC/USD:1D", "other"), ErrLockLost)
	require.NoError(t, c.Unlock(ctx, "lock:unit:BTC/USD:1D", tok))

	_, ok, err = c.TryLock(ctx, "lock:unit:BTC/USD:1D", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lock:unit:ETH/USD:4H", Key("lock", "unit", "ETH/USD", "4H"))
}
