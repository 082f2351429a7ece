package usersync

import (
	"sort"
	"sync"
	"time"
)

// evictFraction of entries removed in one batch when the cache is full.
// Batch eviction instead of strict LRU keeps Set amortized cheap.
const evictFraction = 0.25

type cacheEntry struct {
	snapshot  UserSnapshot
	timestamp time.Time
	source    string
}

// SnapshotCache maps user id to a time-bounded snapshot copy. It never talks
// to the store.
type SnapshotCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*cacheEntry
}

func NewSnapshotCache(ttl time.Duration, maxEntries int) *SnapshotCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &SnapshotCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    map[string]*cacheEntry{},
	}
}

// Get returns the cached snapshot and its source tag. A stale entry is
// deleted on the way out and reported as a miss.
func (c *SnapshotCache) Get(userID string) (UserSnapshot, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return UserSnapshot{}, "", false
	}
	if time.Since(e.timestamp) > c.ttl {
		delete(c.entries, userID)
		return UserSnapshot{}, "", false
	}
	return e.snapshot, e.source, true
}

func (c *SnapshotCache) Set(userID string, snapshot UserSnapshot, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[userID] = &cacheEntry{
		snapshot:  snapshot,
		timestamp: time.Now(),
		source:    source,
	}
}

func (c *SnapshotCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked drops the oldest quarter of entries by capture time.
func (c *SnapshotCache) evictOldestLocked() {
	type aged struct {
		userID string
		ts     time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for id, e := range c.entries {
		all = append(all, aged{userID: id, ts: e.timestamp})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ts.Before(all[j].ts) })

	n := int(float64(len(all)) * evictFraction)
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(c.entries, a.userID)
	}
	metricCacheEvictTotal.Add(int64(n))
}
