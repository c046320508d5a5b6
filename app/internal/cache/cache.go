package cache

import (
	"sync"
	"time"
)

// Entry represents a cached value with expiration. A zero ExpiresAt never
// expires.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

func newEntry[V any](v V, ttl time.Duration) Entry[V] {
	e := Entry[V]{Value: v}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	return e
}

func (e Entry[V]) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache is an in-memory TTL cache. Expired entries are invisible to Get and
// are swept periodically by a background goroutine until Stop is called.
type Cache[V any] struct {
	mu            sync.RWMutex
	items         map[string]Entry[V]
	defaultTTL    time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// New creates a new cache with the given default TTL
func New[V any](defaultTTL time.Duration) *Cache[V] {
	sweep := defaultTTL
	if sweep <= 0 {
		sweep = time.Minute
	}

	c := &Cache[V]{
		items:         make(map[string]Entry[V]),
		defaultTTL:    defaultTTL,
		cleanupTicker: time.NewTicker(sweep),
		stopCleanup:   make(chan struct{}),
	}
	go c.cleanup()

	return c
}

func (c *Cache[V]) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.items {
				if entry.expired(now) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			c.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists || entry.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value in the cache with a custom TTL. A non-positive
// ttl keeps the value until it is deleted.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = newEntry(value, ttl)
}

// Delete removes a value from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Update replaces the value at key with fn(current, found) under a single
// lock and returns the stored value. Expired entries are passed as not found.
func (c *Cache[V]) Update(key string, ttl time.Duration, fn func(cur V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if ok && entry.expired(time.Now()) {
		ok = false
	}
	var cur V
	if ok {
		cur = entry.Value
	}
	next := fn(cur, ok)
	c.items[key] = newEntry(next, ttl)
	return next
}
