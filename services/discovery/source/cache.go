// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// lruCache is a bounded, path-keyed LRU cache used for the content and
// tree tiers of the reader.
//
// # Thread Safety
//
// Safe for concurrent use. Writes are idempotent: storing the same key
// twice replaces the entry, which is harmless since recomputation always
// yields an equivalent value.
type lruCache[V any] struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List
	maxEntries int
	onEvict    func(V)

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// lruEntry pairs a key with its cached value inside the LRU list.
type lruEntry[V any] struct {
	key   string
	value V
}

// newLRUCache creates a cache bounded to maxEntries. onEvict, if non-nil,
// runs for every value removed by eviction or Clear.
func newLRUCache[V any](maxEntries int, onEvict func(V)) *lruCache[V] {
	return &lruCache[V]{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		onEvict:    onEvict,
	}
}

// Get returns the cached value for key and whether it was present.
func (c *lruCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*lruEntry[V]).value, true
}

// Put stores value under key, evicting the least recently used entry
// when the cache is full.
func (c *lruCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*lruEntry[V])
		if c.onEvict != nil {
			c.onEvict(entry.value)
		}
		entry.value = value
		c.lru.MoveToFront(elem)
		return
	}

	c.entries[key] = c.lru.PushFront(&lruEntry[V]{key: key, value: value})

	for c.maxEntries > 0 && c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		entry := oldest.Value.(*lruEntry[V])
		c.lru.Remove(oldest)
		delete(c.entries, entry.key)
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(entry.value)
		}
	}
}

// Invalidate removes a single entry if present.
func (c *lruCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return
	}
	entry := elem.Value.(*lruEntry[V])
	c.lru.Remove(elem)
	delete(c.entries, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.value)
	}
}

// Len returns the number of cached entries.
func (c *lruCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear drops all entries and resets the hit/miss/eviction counters.
func (c *lruCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
			c.onEvict(elem.Value.(*lruEntry[V]).value)
		}
	}

	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// Stats returns the cumulative hit, miss, and eviction counts.
func (c *lruCache[V]) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}
