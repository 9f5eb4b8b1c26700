package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*FollowCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFollowCache(client, time.Minute), mr
}

func constLoader(v bool, calls *int) Loader {
	return func(context.Context) (bool, error) {
		*calls++
		return v, nil
	}
}

func TestFollowCache_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0

	ok, err := c.IsFollowing(ctx, 1, 2, constLoader(true, &calls))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsFollowing(ctx, 1, 2, constLoader(false, &calls))
	require.NoError(t, err)
	assert.True(t, ok, "served from cache")
	assert.Equal(t, 1, calls)
	assert.Equal(t, Counters{Hits: 1, Misses: 1}, c.Counters())

	v, err := mr.Get("follow:1:2")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, time.Minute, mr.TTL("follow:1:2"))
}

func TestFollowCache_NegativeCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0

	for i := 0; i < 3; i++ {
		ok, err := c.IsFollowing(ctx, 2, 1, constLoader(false, &calls))
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, calls)
}

func TestFollowCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0

	_, err := c.IsFollowing(ctx, 1, 2, constLoader(false, &calls))
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 1, 2))
	assert.False(t, mr.Exists("follow:1:2"))

	ok, err := c.IsFollowing(ctx, 1, 2, constLoader(true, &calls))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestFollowCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0

	_, _ = c.IsFollowing(ctx, 1, 2, constLoader(true, &calls))
	mr.FastForward(2 * time.Minute)
	_, _ = c.IsFollowing(ctx, 1, 2, constLoader(true, &calls))
	assert.Equal(t, 2, calls)
}

func TestFollowCache_LoaderError(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("db down")

	_, err := c.IsFollowing(context.Background(), 1, 2, func(context.Context) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("follow:1:2"))
}

func TestFollowCache_RedisDownFallsBack(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	calls := 0

	ok, err := c.IsFollowing(context.Background(), 1, 2, constLoader(true, &calls))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}
