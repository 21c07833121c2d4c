package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lborres/studysync/core"
)

var _ core.ViewCache = (*InMemoryViewCache)(nil)

// InMemoryViewCache implements core.ViewCache inside the process
type InMemoryViewCache struct {
	views    map[string]*cachedView // key: userID + path
	versions map[string]uint64      // bumped by Invalidate, never evicted
	mu       sync.RWMutex
	ttl      time.Duration
	maxSize  int
	now      func() time.Time

	// counters
	hits          int64
	misses        int64
	sets          int64
	invalidations int64
	evictions     int64
}

type cachedView struct {
	variants map[string][]byte
	cachedAt time.Time
}

// NewInMemoryViewCache creates a new in-memory view cache. MaxSize bounds
// the number of (user, path) entries.
func NewInMemoryViewCache(c core.CacheConfig) *InMemoryViewCache {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &InMemoryViewCache{
		views:    make(map[string]*cachedView),
		versions: make(map[string]uint64),
		ttl:      c.TTL,
		maxSize:  c.MaxSize,
		now:      time.Now,
	}
}

func viewKey(userID, path string) string {
	return userID + ":" + path
}

// Get returns a cached variant of a view
func (c *InMemoryViewCache) Get(_ context.Context, userID, path, variant string) ([]byte, error) {
	key := viewKey(userID, path)

	c.mu.RLock()
	view, exists := c.views[key]
	var payload []byte
	var expired bool
	if exists {
		payload, exists = view.variants[variant]
		expired = c.now().Sub(view.cachedAt) > c.ttl
	}
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheMiss
	}

	if expired {
		atomic.AddInt64(&c.misses, 1)
		c.mu.Lock()
		if v, ok := c.views[key]; ok && c.now().Sub(v.cachedAt) > c.ttl {
			delete(c.views, key)
		}
		c.mu.Unlock()
		return nil, core.ErrCacheMiss
	}

	atomic.AddInt64(&c.hits, 1)
	return payload, nil
}

// Set stores a variant of a view. The view's age is counted from its
// first cached variant, so one invalidation drops all variants together.
func (c *InMemoryViewCache) Set(_ context.Context, userID, path, variant string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(viewKey(userID, path), variant, payload)
	return nil
}

func (c *InMemoryViewCache) Version(_ context.Context, userID, path string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[viewKey(userID, path)], nil
}

// SetIfCurrent stores a variant unless the view was invalidated after version was read
func (c *InMemoryViewCache) SetIfCurrent(_ context.Context, userID, path, variant string, version uint64, payload []byte) error {
	key := viewKey(userID, path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[key] != version {
		return core.ErrStaleView
	}
	c.setLocked(key, variant, payload)
	return nil
}

func (c *InMemoryViewCache) setLocked(key, variant string, payload []byte) {
	view, exists := c.views[key]
	if exists && c.now().Sub(view.cachedAt) > c.ttl {
		exists = false
	}

	if !exists {
		// Simple eviction if full
		if len(c.views) >= c.maxSize {
			for k := range c.views {
				delete(c.views, k)
				atomic.AddInt64(&c.evictions, 1)
				break
			}
		}
		view = &cachedView{variants: make(map[string][]byte), cachedAt: c.now()}
		c.views[key] = view
	}

	view.variants[variant] = payload
	atomic.AddInt64(&c.sets, 1)
}

// Invalidate drops every variant of the given paths for one user
func (c *InMemoryViewCache) Invalidate(_ context.Context, userID string, paths ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range paths {
		key := viewKey(userID, path)
		c.versions[key]++
		if _, existed := c.views[key]; existed {
			delete(c.views, key)
			atomic.AddInt64(&c.invalidations, 1)
		}
	}
	return nil
}

// Len returns the number of cached (user, path) views
func (c *InMemoryViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.views)
}

// Stats returns cache statistics
func (c *InMemoryViewCache) Stats() core.CacheStats {
	return core.CacheStats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Sets:          atomic.LoadInt64(&c.sets),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		Evictions:     atomic.LoadInt64(&c.evictions),
		Size:          c.Len(),
		TTL:           c.ttl,
	}
}
