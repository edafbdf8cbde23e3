// Package cache provides a small in-memory TTL cache for provider reads.
//
// A single opsdesk invocation may resolve the same item several times (the
// auto workflow prepares two runs against one target); the cache keeps that to
// one remote request per item per process.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultItemTTL bounds how long a fetched item is reused within one process.
const DefaultItemTTL = 5 * time.Minute

// entry represents a cached item with expiration
type entry struct {
	data      any
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a thread-safe in-memory cache with TTL support
type Cache struct {
	mu      sync.RWMutex
	store   map[string]*entry
	enabled bool
	now     func() time.Time
}

// New creates a new, enabled Cache
func New() *Cache {
	return &Cache{
		store:   make(map[string]*entry),
		enabled: true,
		now:     time.Now,
	}
}

// Key joins parts into a namespaced cache key, e.g. Key("github", "acme/app", "issue", "12").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Enable enables the cache
func (c *Cache) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable disables the cache; Get misses and Set is a no-op until re-enabled.
func (c *Cache) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// Enabled returns true if caching is enabled
func (c *Cache) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Get retrieves a live value by key. The caller type-asserts the result.
func (c *Cache) Get(key string) (any, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.store, key)
		return nil, false
	}

	return e.data, true
}

// Set stores a value in the cache with the given TTL
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &entry{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*entry)
}

// Size returns the number of entries in the cache, expired or not
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
