package cache

import (
	"sync"
	"time"
)

// entry represents a cached value with expiration
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a simple in-memory cache with per-entry TTL. Used for the
// assembled catalogue response; cross-instance caching goes through Redis
// instead.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*entry
}

// New creates a new cache
func New() *Cache {
	return &Cache{items: map[string]*entry{}}
}

// Set stores a value with a TTL
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Get retrieves a value if it hasn't expired
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.items[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Delete removes a key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Purge removes expired entries; callers may run it periodically.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
