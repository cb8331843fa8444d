// Package cache provides a small in-process LRU cache with TTL used by the
// store to avoid re-reading hot rows (conversations) on every request.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config controls cache sizing and expiry.
type Config struct {
	Capacity   int
	DefaultTTL time.Duration
}

// Cache is an LRU cache with per-entry TTL.
type Cache[K comparable, V any] struct {
	cache      map[K]*entry[K, V]
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex
}

type entry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
}

// New creates a cache. Non-positive capacity or TTL fall back to defaults.
func New[K comparable, V any](config Config) *Cache[K, V] {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = 1000
	}
	defaultTTL := config.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[K]*entry[K, V]),
		order:      list.New(),
	}
}

// Get retrieves a value, treating expired entries as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		var zero V
		return zero, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(c.defaultTTL)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeEntry(oldest.Value.(*entry[K, V]))
	}

	e := &entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.defaultTTL),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// Remove drops a key if present.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		c.removeEntry(e)
	}
}

// Len returns the number of live entries, including not-yet-evicted
// expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *Cache[K, V]) removeEntry(e *entry[K, V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}
