package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies when Set is given no TTL
const DefaultTTL = 30 * time.Minute

// MemoryCache is a size-bounded in-memory cache. Expired entries are dropped
// when read or when room is needed; there is no background sweeper.
type MemoryCache struct {
	mu          sync.Mutex
	items       map[string]*cacheItem
	maxBytes    int64
	currentSize int64
	stats       Stats
	now         func() time.Time
}

type cacheItem struct {
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryCache creates a cache holding at most maxBytes of keys and values.
// maxBytes <= 0 means unbounded.
func NewMemoryCache(maxBytes int64) *MemoryCache {
	return &MemoryCache{
		items:    make(map[string]*cacheItem),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.items[key]
	if ok && mc.now().After(item.expiry) {
		mc.remove(key, item)
		ok = false
	}
	if !ok {
		mc.stats.Misses++
		return nil, false
	}
	mc.stats.Hits++
	return item.value, true
}

// Set stores a value in the cache with a TTL. Values larger than the whole
// cache are not stored.
func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := int64(len(key) + len(value))

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.maxBytes > 0 && size > mc.maxBytes {
		return nil
	}
	if old, ok := mc.items[key]; ok {
		mc.currentSize -= old.size
		delete(mc.items, key)
	}
	mc.makeRoom(size)

	mc.items[key] = &cacheItem{value: value, expiry: mc.now().Add(ttl), size: size}
	mc.currentSize += size
	mc.stats.Sets++
	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	if item, ok := mc.items[key]; ok {
		mc.currentSize -= item.size
		delete(mc.items, key)
	}
	mc.mu.Unlock()
	return nil
}

// Clear removes all values from the cache
func (mc *MemoryCache) Clear(_ context.Context) error {
	mc.mu.Lock()
	mc.items = make(map[string]*cacheItem)
	mc.currentSize = 0
	mc.mu.Unlock()
	return nil
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	stats := mc.stats
	stats.Size = mc.currentSize
	stats.MaxSize = mc.maxBytes
	return stats
}

// remove drops an entry and counts it as evicted. Callers hold mu.
func (mc *MemoryCache) remove(key string, item *cacheItem) {
	delete(mc.items, key)
	mc.currentSize -= item.size
	mc.stats.Evictions++
}

// makeRoom evicts expired entries, then arbitrary ones, until sizeNeeded
// fits. Callers hold mu.
func (mc *MemoryCache) makeRoom(sizeNeeded int64) {
	if mc.maxBytes <= 0 || mc.currentSize+sizeNeeded <= mc.maxBytes {
		return
	}

	now := mc.now()
	for key, item := range mc.items {
		if now.After(item.expiry) {
			mc.remove(key, item)
		}
	}

	for key, item := range mc.items {
		if mc.currentSize+sizeNeeded <= mc.maxBytes {
			return
		}
		mc.remove(key, item)
	}
}
