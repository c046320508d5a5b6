package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// Provider is the byte-oriented cache used for computed indicators.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr atomically adds one to the counter at key, creating it at zero,
	// and returns the new value. Counters do not expire.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// MemoryProvider keeps entries in a process-local Cache.
type MemoryProvider struct {
	c *Cache[[]byte]
}

// NewMemoryProvider returns a MemoryProvider whose entries default to ttl.
func NewMemoryProvider(ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{c: New[[]byte](ttl)}
}

// Get returns ErrCacheMiss for absent or expired keys.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

// Set stores value; a non-positive ttl uses the provider default.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		p.c.Set(key, value)
		return nil
	}
	p.c.SetWithTTL(key, value, ttl)
	return nil
}

// Del removes keys.
func (p *MemoryProvider) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		p.c.Delete(k)
	}
	return nil
}

// Incr keeps the counter as decimal text so Get reads it like Redis does.
func (p *MemoryProvider) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	p.c.Update(key, 0, func(cur []byte, ok bool) []byte {
		if ok {
			n, _ = strconv.ParseInt(string(cur), 10, 64)
		}
		n++
		return []byte(strconv.FormatInt(n, 10))
	})
	return n, nil
}

// Close stops the sweeper.
func (p *MemoryProvider) Close() error {
	p.c.Stop()
	return nil
}

// RedisProvider shares cached entries between instances through Redis.
type RedisProvider struct {
	client *redis.Client
	prefix string
}

// NewRedisProvider connects to url (redis://...) and pings it so bad
// credentials fail at startup. Keys are namespaced with prefix.
func NewRedisProvider(ctx context.Context, url, prefix string) (*RedisProvider, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProvider{client: client, prefix: prefix}, nil
}

// Get fetches key, mapping redis.Nil to ErrCacheMiss.
func (p *RedisProvider) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores value with ttl (0 means no expiry).
func (p *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.client.Set(ctx, p.prefix+key, value, ttl).Err()
}

// Del removes keys.
func (p *RedisProvider) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	return p.client.Del(ctx, full...).Err()
}

// Incr maps onto INCR.
func (p *RedisProvider) Incr(ctx context.Context, key string) (int64, error) {
	return p.client.Incr(ctx, p.prefix+key).Result()
}

// Close releases the connection pool.
func (p *RedisProvider) Close() error {
	return p.client.Close()
}
