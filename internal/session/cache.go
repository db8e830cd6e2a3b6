// Package session holds the per-session identification cache and the batch
// pipeline that fills it.
package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
	"github.com/birdeye-app/birdeye/internal/photo"
)

// Entry is one identified photo as the cache keeps it.
type Entry struct {
	Key    photo.Fingerprint
	Result identify.Result
	Image  []byte // original upload bytes
	Suffix string // lower-cased extension including the dot
}

// ComputeFunc produces the entry for a cache miss.
type ComputeFunc func(ctx context.Context) (Entry, error)

// Cache deduplicates identification work per fingerprint within one
// session. Concurrent lookups of the same key share a single computation.
// A Cache must not be shared between sessions.
type Cache struct {
	mu         sync.RWMutex
	entries    map[photo.Fingerprint]Entry
	generation uint64

	group   singleflight.Group
	metrics *metrics.PipelineMetrics
}

// NewCache creates an empty cache. Metrics may be nil.
func NewCache(m *metrics.PipelineMetrics) *Cache {
	return &Cache{entries: make(map[photo.Fingerprint]Entry), metrics: m}
}

// Get returns the entry stored for key.
func (c *Cache) Get(key photo.Fingerprint) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// GetOrCompute returns the cached entry for key, or runs compute once and
// stores its entry. hit is true when no computation ran for this caller.
// Errors are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key photo.Fingerprint, compute ComputeFunc) (entry Entry, hit bool, err error) {
	if e, ok := c.Get(key); ok {
		c.metrics.RecordCache(true)
		return e, true, nil
	}

	leader := false
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		leader = true
		// a concurrent caller may have stored it between Get and Do
		if e, ok := c.Get(key); ok {
			return flight{entry: e}, nil
		}

		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		e, err := compute(ctx)
		if err != nil {
			return flight{}, err
		}
		e.Key = key

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = e
		}
		c.mu.Unlock()
		return flight{entry: e, computed: true}, nil
	})
	if err != nil {
		c.metrics.RecordCache(false)
		return Entry{}, false, err
	}
	f := v.(flight)
	hit = !leader || !f.computed
	c.metrics.RecordCache(hit)
	return f.entry, hit, nil
}

// flight is the value shared by callers of one singleflight call.
type flight struct {
	entry    Entry
	computed bool
}

// Reset drops every entry. Computations in flight finish but are not stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[photo.Fingerprint]Entry)
	c.generation++
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
