package cache

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL matches the collector's sampling cadence.
const DefaultTTL = 10 * time.Second

type entry struct {
	value    any
	storedAt time.Time
}

// Cache memoizes query results per key for a bounded age. Expiry is checked
// on read; there is no background sweeper and no size-based eviction.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	generation uint64
	defaultTTL time.Duration
	now        func() time.Time
	group      singleflight.Group
	metrics    *metrics
	reg        prometheus.Registerer
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRegisterer exposes hit, miss and invalidation counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) { c.reg = reg }
}

func New(defaultTTL time.Duration, opts ...Option) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		entries:    map[string]entry{},
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newMetrics(c.reg)
	return c
}

func (c *Cache) DefaultTTL() time.Duration { return c.defaultTTL }

// GetOrCompute returns the value stored under key if it is younger than ttl,
// otherwise it runs fn and stores the result. Errors are returned but never
// stored. A non-positive ttl means the cache default.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if v, ok := c.lookup(key, ttl); ok {
		c.metrics.hits.Inc()
		return v, nil
	}
	c.metrics.misses.Inc()
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	// a flight started before InvalidateAll is never joined by later callers
	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// dropped if InvalidateAll ran while fn was computing
		if c.generation == gen {
			c.entries[key] = entry{value: v, storedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (c *Cache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// InvalidateAll drops every entry regardless of age.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.generation++
	c.mu.Unlock()
	c.metrics.invalidations.Inc()
}

// Len reports the number of stored entries, including ones not yet found expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get is the typed form of GetOrCompute.
func Get[T any](c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrCompute(key, ttl, func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %q holds %T", key, v)
	}
	return out, nil
}

// Key joins call arguments into a deterministic cache key.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}
