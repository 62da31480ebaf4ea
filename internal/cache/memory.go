// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/judgefinder/judgefinder/internal/metrics"
)

// memoryEntry is a node in the LRU list.
type memoryEntry struct {
	key       string
	entry     Entry
	tags      []string
	prev      *memoryEntry
	next      *memoryEntry
	expiresAt time.Time
}

// MemoryTier is the in-process cache level: a thread-safe LRU with TTL
// and tag-based invalidation.
//
// A doubly-linked list tracks recency and a hashmap gives O(1) lookup;
// head.next is the most recently used, tail.prev the least. A second
// index maps tags to the keys carrying them so InvalidateTag does not
// scan the whole cache. Expiration is lazy on Get plus a periodic
// sweep (see Coordinator's janitor).
type MemoryTier struct {
	mu sync.RWMutex

	// capacity is the maximum number of entries
	capacity int

	// defaultTTL applies when Set is called with ttl <= 0
	defaultTTL time.Duration

	// items maps keys to linked list nodes for O(1) lookup
	items map[string]*memoryEntry

	// byTag maps tags to the set of keys carrying them
	byTag map[string]map[string]struct{}

	// head and tail are sentinel nodes for the doubly-linked list
	head *memoryEntry
	tail *memoryEntry

	// stats
	hits   int64
	misses int64
}

// NewMemoryTier creates the in-process tier with the given capacity
// and default TTL.
func NewMemoryTier(capacity int, defaultTTL time.Duration) *MemoryTier {
	if capacity <= 0 {
		capacity = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	t := &MemoryTier{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*memoryEntry, capacity),
		byTag:      make(map[string]map[string]struct{}),
		head:       &memoryEntry{},
		tail:       &memoryEntry{},
	}

	// Initialize linked list sentinels
	t.head.next = t.tail
	t.tail.prev = t.head

	return t
}

// Name implements Tier.
func (t *MemoryTier) Name() string { return TierMemory }

// Get retrieves an entry, moving it to the front on a hit. Expired
// entries are removed and reported as misses.
func (t *MemoryTier) Get(_ context.Context, key string) (Entry, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item, exists := t.items[key]; exists {
		if time.Now().After(item.expiresAt) {
			t.removeItem(item)
			t.misses++
			return Entry{}, false, nil
		}

		t.moveToFront(item)
		t.hits++
		return item.entry, true, nil
	}

	t.misses++
	return Entry{}, false, nil
}

// Set adds or updates an entry. At capacity the least recently used
// entry is evicted.
func (t *MemoryTier) Set(_ context.Context, key string, e Entry, ttl time.Duration, tags []string) error {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}
	expiresAt := time.Now().Add(ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	if item, exists := t.items[key]; exists {
		t.untag(item)
		item.entry = e
		item.tags = tags
		item.expiresAt = expiresAt
		t.tag(item)
		t.moveToFront(item)
		return nil
	}

	item := &memoryEntry{
		key:       key,
		entry:     e,
		tags:      tags,
		expiresAt: expiresAt,
	}

	t.addToFront(item)
	t.items[key] = item
	t.tag(item)

	for len(t.items) > t.capacity {
		t.evictOldest()
	}

	metrics.CacheMemoryEntries.Set(float64(len(t.items)))
	return nil
}

// Delete removes an entry by key.
func (t *MemoryTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item, exists := t.items[key]; exists {
		t.removeItem(item)
	}
	return nil
}

// InvalidateTag removes every entry carrying the tag.
func (t *MemoryTier) InvalidateTag(_ context.Context, tag string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.byTag[tag] {
		if item, exists := t.items[key]; exists {
			t.removeItem(item)
		}
	}
	delete(t.byTag, tag)
	return nil
}

// Len returns the current number of entries.
func (t *MemoryTier) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// CleanupExpired removes all expired entries and returns how many were
// dropped. Called periodically by the coordinator's janitor.
func (t *MemoryTier) CleanupExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	removed := 0

	// Walk from tail (oldest) to head (newest)
	for item := t.tail.prev; item != t.head; {
		prev := item.prev
		if now.After(item.expiresAt) {
			t.removeItem(item)
			removed++
		}
		item = prev
	}

	metrics.CacheMemoryEntries.Set(float64(len(t.items)))
	return removed
}

// Stats returns hit/miss counters and the current size.
func (t *MemoryTier) Stats() (hits, misses int64, size int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hits, t.misses, len(t.items)
}

// Internal methods (must be called with lock held)

func (t *MemoryTier) tag(item *memoryEntry) {
	for _, tag := range item.tags {
		keys := t.byTag[tag]
		if keys == nil {
			keys = make(map[string]struct{})
			t.byTag[tag] = keys
		}
		keys[item.key] = struct{}{}
	}
}

func (t *MemoryTier) untag(item *memoryEntry) {
	for _, tag := range item.tags {
		if keys := t.byTag[tag]; keys != nil {
			delete(keys, item.key)
			if len(keys) == 0 {
				delete(t.byTag, tag)
			}
		}
	}
}

// addToFront adds an item at the most recently used position.
func (t *MemoryTier) addToFront(item *memoryEntry) {
	item.prev = t.head
	item.next = t.head.next
	t.head.next.prev = item
	t.head.next = item
}

// moveToFront moves an existing item to the most recently used position.
func (t *MemoryTier) moveToFront(item *memoryEntry) {
	item.prev.next = item.next
	item.next.prev = item.prev
	t.addToFront(item)
}

// removeItem removes an item from the list, the map, and the tag index.
func (t *MemoryTier) removeItem(item *memoryEntry) {
	item.prev.next = item.next
	item.next.prev = item.prev
	t.untag(item)
	delete(t.items, item.key)
}

// evictOldest removes the least recently used item.
func (t *MemoryTier) evictOldest() {
	oldest := t.tail.prev
	if oldest == t.head {
		return
	}
	t.removeItem(oldest)
}
