package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache[string] = (*MemoryCache[string])(nil)

// MemoryCache implements in-memory expiring storage
type MemoryCache[V any] struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache[V any](defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	if val, found := c.cache.Get(key); found {
		if v, ok := val.(V); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set stores a value; ttl 0 uses the default TTL
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// Len counts stored items, including expired ones not yet cleaned up
func (c *MemoryCache[V]) Len() int {
	return c.cache.ItemCount()
}

// OnEvicted registers a callback run when an item expires
func (c *MemoryCache[V]) OnEvicted(fn func(key string, value V)) {
	c.cache.OnEvicted(func(key string, val interface{}) {
		if v, ok := val.(V); ok {
			fn(key, v)
		}
	})
}
