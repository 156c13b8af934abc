// Package cache provides a bounded in-memory cache for classification
// reports. Reports are immutable and fully keyed by their inputs, so a hit
// is always byte-equivalent to recomputing.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/fpti/internal/domain/model"
)

// Key identifies one cached report. Every field participates: the same
// player under a different profile version or population is a different
// report. The population is identified by its content checksum, not its tag,
// so two batches normalized against themselves never share an entry unless
// their populations are actually identical. RecordVersion must be non-empty
// for a record to be cacheable.
type Key struct {
	PlayerID           string
	RecordVersion      string
	ProfileVersion     string
	PopulationChecksum string
}

// ReportCache stores classification reports keyed by their full input
// identity.
type ReportCache interface {
	// Get returns a cached report and whether it was present.
	Get(ctx context.Context, key Key) (model.ClassificationReport, bool)

	// Put stores a report. Keys with an empty RecordVersion are ignored:
	// an unversioned record has no stable identity to cache under.
	Put(ctx context.Context, key Key, rep model.ClassificationReport)

	Size() int64
}

// entry is one cache slot in the eviction ring.
type entry struct {
	key Key
	rep model.ClassificationReport
}

// inMemoryCache implements ReportCache with a bounded map and FIFO eviction.
type inMemoryCache struct {
	mu      sync.RWMutex
	reports map[Key]*entry
	order   []Key // insertion order for FIFO eviction
	maxSize int
	size    atomic.Int64
}

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxSize bounds the number of cached reports. Zero or negative means
// unbounded.
func WithMaxSize(size int) Option {
	return func(c *inMemoryCache) {
		c.maxSize = size
	}
}

// NewInMemoryCache creates a bounded in-memory report cache.
func NewInMemoryCache(opts ...Option) ReportCache {
	c := &inMemoryCache{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reports = make(map[Key]*entry)
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key Key) (model.ClassificationReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.reports[key]
	if !ok {
		return model.ClassificationReport{}, false
	}
	return e.rep, true
}

func (c *inMemoryCache) Put(ctx context.Context, key Key, rep model.ClassificationReport) {
	if key.RecordVersion == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.reports[key]; exists {
		// Reports are immutable; the existing entry is already correct.
		return
	}

	if c.maxSize > 0 && len(c.reports) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.reports, oldest)
		c.size.Add(-1)
	}

	c.reports[key] = &entry{key: key, rep: rep}
	c.order = append(c.order, key)
	c.size.Add(1)
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
