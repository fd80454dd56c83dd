package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// QueryCache is an LRU of retrieval results with a TTL. Each entry remembers
// the partition version it was computed against and is dropped once the
// partition has been written since.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	results   []domain.ScoredPassage
	timestamp time.Time
	version   uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(institutionID, query string, topK int) string {
	h := sha256.New()
	h.Write([]byte(institutionID))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(query)))
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(topK))
	h.Write(k[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Get returns cached results computed at the given partition version.
func (c *QueryCache) Get(institutionID, query string, topK int, version uint64) ([]domain.ScoredPassage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(institutionID, query, topK)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.version != version {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.results, true
}

func (c *QueryCache) Put(institutionID, query string, topK int, version uint64, results []domain.ScoredPassage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(institutionID, query, topK)
	entry := &cacheEntry{
		results:   results,
		timestamp: c.now(),
		version:   version,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Versioner reports the write version of an institution's partition.
type Versioner interface {
	Version(institutionID string) uint64
}

// CachedRetriever serves repeated queries from a QueryCache. Errors are never cached.
type CachedRetriever struct {
	retriever port.Retriever
	versions  Versioner
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, versions Versioner, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		versions:  versions,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, institutionID, query string, k int) ([]domain.ScoredPassage, error) {
	// read the version first so a concurrent write can only make the entry stale
	version := r.versions.Version(institutionID)
	if results, hit := r.cache.Get(institutionID, query, k, version); hit {
		return results, nil
	}

	results, err := r.retriever.Retrieve(ctx, institutionID, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(institutionID, query, k, version, results)
	return results, nil
}
