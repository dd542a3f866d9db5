package utils

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a small keyed cache with per-entry expiry. Entries are
// reaped lazily on read.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{entries: make(map[string]cacheEntry)}
}

// Cache is the process-wide instance used by leaderboard reads.
var Cache = NewTTLCache()

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.Invalidate(key)
		return nil, false
	}
	return entry.value, true
}

func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
