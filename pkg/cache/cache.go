// Package cache memoizes resolution results with TTL eviction.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/KiNGTV2025/xdert/pkg/types"
)

// ResolveFunc performs an actual resolution on a cache miss.
type ResolveFunc func(ctx context.Context, url string, headers map[string]string) types.ResolutionResult

// HitCounter receives a tick for every cache hit.
type HitCounter interface {
	IncCacheHits()
}

type entry struct {
	result     types.ResolutionResult
	insertedAt time.Time
}

// ResolveCache is a TTL-bounded memo table for resolution results.
//
// The key is a hash of the URL only: two requests for the same URL with
// different headers share one cached result. That matches the deployed
// wire behavior and is intentional.
//
// Expired entries are swept lazily, and only when the table has grown
// past sweepThreshold. Concurrent misses for the same key may both
// resolve; the later write wins.
type ResolveCache struct {
	mu             sync.Mutex
	entries        map[string]entry
	ttl            time.Duration
	sweepThreshold int
	hits           HitCounter
	now            func() time.Time
}

// New creates a ResolveCache. hits may be nil.
func New(ttl time.Duration, sweepThreshold int, hits HitCounter) *ResolveCache {
	return &ResolveCache{
		entries:        make(map[string]entry),
		ttl:            ttl,
		sweepThreshold: sweepThreshold,
		hits:           hits,
		now:            time.Now,
	}
}

// Key returns the cache key for a channel URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached resolution for url if still fresh, otherwise
// invokes resolve and stores its result.
func (c *ResolveCache) Get(ctx context.Context, url string, headers map[string]string, resolve ResolveFunc) types.ResolutionResult {
	key := Key(url)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.insertedAt) < c.ttl {
		c.mu.Unlock()
		if c.hits != nil {
			c.hits.IncCacheHits()
		}
		return e.result
	}
	c.mu.Unlock()

	// Resolution is the slow path; run it outside the lock. It also
	// runs to completion even when the triggering caller goes away: a
	// resolve cut short by the caller's cancellation would plant its
	// fallback result in the table for a full TTL.
	result := resolve(context.WithoutCancel(ctx), url, headers)

	c.mu.Lock()
	c.entries[key] = entry{result: result, insertedAt: c.now()}
	if len(c.entries) > c.sweepThreshold {
		c.sweepLocked()
	}
	c.mu.Unlock()

	return result
}

// sweepLocked drops every expired entry. Caller holds c.mu.
func (c *ResolveCache) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
}

// Clear empties the cache.
func (c *ResolveCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, fresh or not.
func (c *ResolveCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
