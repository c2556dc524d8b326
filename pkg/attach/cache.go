package attach

import (
	"sort"
	"sync"
	"time"
)

// Cache defaults.
const (
	DefaultMaxCacheSize = 1000
	DefaultCacheTTL     = time.Hour
)

// UploadResult is the outcome of resolving one attachment reference.
type UploadResult struct {
	FileID   string
	ByteSize int64
	Kind     Kind
}

type cacheEntry struct {
	result    UploadResult
	expiresAt time.Time
}

// Cache is a bounded TTL cache of upload results keyed by the sha256 of
// the raw attachment reference. Safe for concurrent use; the insert path
// purges expired entries before evicting by expiry order.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	maxSize int
	ttl     time.Duration

	now func() time.Time
}

// NewCache creates a cache with the given capacity and TTL. Zero values
// select the defaults.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for key. An entry past its TTL counts as a
// miss and is purged.
func (c *Cache) Get(key string) (UploadResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return UploadResult{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return UploadResult{}, false
	}
	return entry.result, true
}

// Set stores a result under key. On overflow, expired entries are purged
// first; if the cache is still full, the oldest tenth by expiry timestamp
// is dropped.
func (c *Cache) Set(key string, result UploadResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		now := c.now()
		for k, v := range c.entries {
			if v.expiresAt.Before(now) {
				delete(c.entries, k)
			}
		}

		if len(c.entries) >= c.maxSize {
			toRemove := c.maxSize / 10
			if toRemove < 1 {
				toRemove = 1
			}
			keys := make([]string, 0, len(c.entries))
			for k := range c.entries {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool {
				return c.entries[keys[i]].expiresAt.Before(c.entries[keys[j]].expiresAt)
			})
			for _, k := range keys[:toRemove] {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = cacheEntry{result: result, expiresAt: c.now().Add(c.ttl)}
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return count
}
