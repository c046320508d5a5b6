package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New[string](1 * time.Second)
	defer c.Stop()

	require.NotNil(t, c)
	assert.Equal(t, 1*time.Second, c.defaultTTL)
}

func TestNew_ZeroTTLStillSweeps(t *testing.T) {
	c := New[int](0)
	defer c.Stop()
	require.NotNil(t, c.cleanupTicker)
}

func TestSet_Get(t *testing.T) {
	c := New[string](1 * time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")

	val, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestGet_Missing(t *testing.T) {
	c := New[int](1 * time.Minute)
	defer c.Stop()

	val, ok := c.Get("nonexistent")
	assert.False(t, ok)
	assert.Zero(t, val)
}

func TestGet_Expired(t *testing.T) {
	c := New[string](1 * time.Minute)
	defer c.Stop()

	c.mu.Lock()
	c.items["expired"] = Entry[string]{Value: "old", ExpiresAt: time.Now().Add(-1 * time.Second)}
	c.mu.Unlock()

	_, ok := c.Get("expired")
	assert.False(t, ok)
}

func TestSetWithTTL(t *testing.T) {
	c := New[string](1 * time.Hour)
	defer c.Stop()

	c.SetWithTTL("short", "data", 50*time.Millisecond)

	val, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, "data", val)

	time.Sleep(100 * time.Millisecond)

	_, ok = c.Get("short")
	assert.False(t, ok, "expected key to be expired after TTL")
}

func TestDelete(t *testing.T) {
	c := New[string](1 * time.Minute)
	defer c.Stop()

	c.Set("del", "val")
	c.Delete("del")

	_, ok := c.Get("del")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	c := New[int](1 * time.Minute)
	defer c.Stop()

	add := func(cur int, ok bool) int {
		if !ok {
			return 10
		}
		return cur + 1
	}
	assert.Equal(t, 10, c.Update("n", 0, add))
	assert.Equal(t, 11, c.Update("n", 0, add))

	val, ok := c.Get("n")
	require.True(t, ok)
	assert.Equal(t, 11, val)
}

func TestUpdate_ExpiredCountsAsMissing(t *testing.T) {
	c := New[int](1 * time.Minute)
	defer c.Stop()

	c.mu.Lock()
	c.items["n"] = Entry[int]{Value: 5, ExpiresAt: time.Now().Add(-time.Second)}
	c.mu.Unlock()

	got := c.Update("n", time.Minute, func(cur int, ok bool) int {
		assert.False(t, ok)
		return cur + 1
	})
	assert.Equal(t, 1, got)
}

func TestSetWithTTL_ZeroNeverExpires(t *testing.T) {
	c := New[string](1 * time.Minute)
	defer c.Stop()

	c.SetWithTTL("pinned", "v", 0)

	c.mu.RLock()
	entry := c.items["pinned"]
	c.mu.RUnlock()
	assert.True(t, entry.ExpiresAt.IsZero())
	assert.False(t, entry.expired(time.Now().Add(24*time.Hour)))
}

func TestOverwrite(t *testing.T) {
	c := New[string](1 * time.Minute)
	defer c.Stop()

	c.Set("key", "first")
	c.Set("key", "second")

	val, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "second", val)
}

func TestStop_Twice(t *testing.T) {
	c := New[int](time.Minute)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](1 * time.Minute)
	defer c.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Set("key", n)
		}(i)
		go func() {
			defer wg.Done()
			c.Get("key")
		}()
	}
	wg.Wait()
}

// --- MemoryProvider ---

func TestMemoryProvider_RoundTrip(t *testing.T) {
	p := NewMemoryProvider(time.Minute)
	defer p.Close()
	ctx := context.Background()

	_, err := p.Get(ctx, "indicators:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, p.Set(ctx, "indicators:1", []byte(`{"failures":1}`), 0))
	b, err := p.Get(ctx, "indicators:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"failures":1}`, string(b))

	require.NoError(t, p.Del(ctx, "indicators:1", "indicators:2"))
	_, err = p.Get(ctx, "indicators:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryProvider_CustomTTL(t *testing.T) {
	p := NewMemoryProvider(time.Hour)
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v"), 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryProvider_Incr(t *testing.T) {
	p := NewMemoryProvider(time.Minute)
	defer p.Close()
	ctx := context.Background()

	n, err := p.Incr(ctx, "indicators:gen:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = p.Incr(ctx, "indicators:gen:1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	b, err := p.Get(ctx, "indicators:gen:1")
	require.NoError(t, err)
	assert.Equal(t, "2", string(b))
}

func TestMemoryProvider_IncrConcurrent(t *testing.T) {
	p := NewMemoryProvider(time.Minute)
	defer p.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Incr(ctx, "c")
		}()
	}
	wg.Wait()

	b, err := p.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "50", string(b))
}

// --- RedisProvider ---

func TestNewRedisProvider_BadURL(t *testing.T) {
	_, err := NewRedisProvider(context.Background(), "not-a-url", "maint:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse Redis URL")
}

func TestNewRedisProvider_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisProvider(ctx, "redis://127.0.0.1:1/0", "maint:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to Redis")
}

func TestProvidersSatisfyInterface(t *testing.T) {
	var _ Provider = (*MemoryProvider)(nil)
	var _ Provider = (*RedisProvider)(nil)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisProvider) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := NewRedisProvider(context.Background(), "redis://"+mr.Addr()+"/0", "maint:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return mr, p
}

func TestRedisProvider_RoundTrip(t *testing.T) {
	mr, p := newMiniRedis(t)
	ctx := context.Background()

	_, err := p.Get(ctx, "indicators:1:0")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, p.Set(ctx, "indicators:1:0", []byte(`{"failures":2}`), time.Minute))
	assert.True(t, mr.Exists("maint:indicators:1:0"), "keys are namespaced with the prefix")
	assert.Equal(t, time.Minute, mr.TTL("maint:indicators:1:0"))

	b, err := p.Get(ctx, "indicators:1:0")
	require.NoError(t, err)
	assert.JSONEq(t, `{"failures":2}`, string(b))

	require.NoError(t, p.Del(ctx, "indicators:1:0", "indicators:2:0"))
	assert.False(t, mr.Exists("maint:indicators:1:0"))
	_, err = p.Get(ctx, "indicators:1:0")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, p.Del(ctx))
}

func TestRedisProvider_Expiry(t *testing.T) {
	mr, p := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisProvider_Incr(t *testing.T) {
	mr, p := newMiniRedis(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := p.Incr(ctx, "indicators:gen:7")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	v, err := mr.Get("maint:indicators:gen:7")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	b, err := p.Get(ctx, "indicators:gen:7")
	require.NoError(t, err)
	assert.Equal(t, "3", string(b))
}

func TestRedisProvider_ServerError(t *testing.T) {
	mr, p := newMiniRedis(t)
	mr.SetError("LOADING")

	_, err := p.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
