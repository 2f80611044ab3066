package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "trending", []byte(`[1,2]`), 0))

	got, ok := c.Get(ctx, "trending")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1,2]`), got)

	_, ok = c.Get(ctx, "popular")
	assert.False(t, ok)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _ := c.Get(ctx, "k")
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "default", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "short", []byte("b"), time.Second))

	now = now.Add(2 * time.Second)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "default")
	assert.True(t, ok)

	c.removeExpired()
	assert.Equal(t, 1, c.Len())

	now = now.Add(time.Minute)
	c.removeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_StopTwice(t *testing.T) {
	c := NewMemory(time.Minute)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return newRedisCache(client, "", time.Minute), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "trending", []byte(`{"a":1}`), 0))

	got, ok := c.Get(ctx, "trending")
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), got)

	assert.True(t, mr.Exists("masbate-today:trending"))
	assert.Equal(t, time.Minute, mr.TTL("masbate-today:trending"))
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "missing"))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()
	mr.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "k", []byte("v"), 0))
}

func TestNewRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), RedisConfig{Addr: addr}, time.Minute)
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"}, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("test:k"))
}
