// Package cache is a small TTL key-value helper for ephemeral response
// caching. Entries expire after the configured TTL; there is no
// persistence and no domain logic.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL key-value store.
type Cache struct {
	ttl   time.Duration
	store *gocache.Cache
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		store: gocache.New(ttl, 2*ttl),
	}
}

// Get returns the value for key if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores value under key with the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, c.ttl)
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}
