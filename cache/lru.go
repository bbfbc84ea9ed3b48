// Package cache provides a small bounded memoization cache with strict
// least-recently-used eviction. It is used to avoid recomputing derived
// text projections (match keys, slugs) on every request.
package cache

import "container/list"

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 200

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a fixed-capacity key/value store with LRU eviction. Recency is
// updated on Get hits and fresh inserts; Has does not touch it. A Cache is
// not safe for concurrent mutation; owners that share one across goroutines
// must serialize access themselves.
type Cache[K comparable, V any] struct {
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

// New creates a cache holding at most capacity entries. A capacity below 1
// falls back to DefaultCapacity.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the cached value for key, computing and storing it via compute
// on a miss. A hit marks the entry most recently used and never invokes
// compute. When an insert pushes the cache over capacity, the single
// least-recently-used entry is evicted.
func (c *Cache[K, V]) Get(key K, compute func(K) V) V {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).value
	}

	value := compute(key)
	el := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = el

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[K, V]).key)
		}
	}

	return value
}

// Has reports whether key is cached without affecting recency order.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Clear empties the cache.
func (c *Cache[K, V]) Clear() {
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

// Size returns the current entry count.
func (c *Cache[K, V]) Size() int {
	return c.order.Len()
}

// Capacity returns the configured maximum entry count.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}
