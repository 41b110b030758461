// Package schemacache keeps compiled schema models keyed by their source text.
//
// Entries are only ever removed by Purge or Close; there is no size bound and
// no eviction. Lookups hash the text with xxhash and then compare the full
// text, so a hash collision never returns another schema's model.
package schemacache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/jacoelho/yang/pkg/schema"
)

// CompileFunc compiles the text a cache entry is keyed by.
type CompileFunc func() (*schema.Model, error)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Entries  int
	Hits     uint64
	Misses   uint64
	Compiles uint64
	Failures uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64][]entry

	group singleflight.Group

	hits     atomic.Uint64
	misses   atomic.Uint64
	compiles atomic.Uint64
	failures atomic.Uint64
	closed   atomic.Bool
}

type entry struct {
	key   string
	model *schema.Model
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[uint64][]entry)}
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default returns the process-wide cache, creating it on first use.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = New()
	})
	return defaultCache
}

// Get returns the model cached under key, compiling and storing it on a
// miss. Concurrent misses for the same key share one compile. Failed
// compiles are returned to every waiter and never stored. hit reports
// whether the model came from the cache.
func (c *Cache) Get(key string, compile CompileFunc) (model *schema.Model, hit bool, err error) {
	sum := xxhash.Sum64String(key)
	if m, ok := c.lookup(sum, key); ok {
		c.hits.Inc()
		return m, true, nil
	}
	c.misses.Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		if m, ok := c.lookup(sum, key); ok {
			return m, nil
		}
		c.compiles.Inc()
		m, err := compile()
		if err != nil {
			c.failures.Inc()
			return nil, err
		}
		c.store(sum, key, m)
		return m, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*schema.Model), false, nil
}

func (c *Cache) lookup(sum uint64, key string) (*schema.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries[sum] {
		if e.key == key {
			return e.model, true
		}
	}
	return nil, false
}

func (c *Cache) store(sum uint64, key string, m *schema.Model) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		return
	}
	for _, e := range c.entries[sum] {
		if e.key == key {
			return
		}
	}
	c.entries[sum] = append(c.entries[sum], entry{key: key, model: m})
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:  c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
		Failures: c.failures.Load(),
	}
}

// Purge removes every entry. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		c.entries = make(map[uint64][]entry)
	}
}

// Close drops every entry. A closed cache still compiles on Get but
// stores nothing.
func (c *Cache) Close() {
	c.closed.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Closed reports whether Close has been called.
func (c *Cache) Closed() bool {
	return c.closed.Load()
}
