package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache простой in-memory кэш с TTL на запись.
// Просроченные записи вычищаются лениво при чтении и при каждой записи
// не чаще одного раза в sweepInterval.
type Cache[V any] struct {
	mu            sync.RWMutex
	entries       map[string]entry[V]
	ttl           time.Duration
	lastSweep     time.Time
	sweepInterval time.Duration
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:       make(map[string]entry[V]),
		ttl:           ttl,
		lastSweep:     time.Now(),
		sweepInterval: ttl,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}

	if now.Sub(c.lastSweep) >= c.sweepInterval {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
