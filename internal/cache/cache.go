// Package cache is a bounded, short-lived in-memory memo.
// Correctness never depends on a hit: callers must produce identical
// results with the cache disabled.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultMaxEntries is used when a non-positive size is requested.
const DefaultMaxEntries = 1000

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eightflix_cache_hits_total",
		Help: "Cache lookups that found a live entry.",
	}, []string{"cache"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eightflix_cache_misses_total",
		Help: "Cache lookups that found nothing or an expired entry.",
	}, []string{"cache"})
	clearsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eightflix_cache_clears_total",
		Help: "Wholesale cache invalidations.",
	}, []string{"cache"})
)

// Cache maps string keys to values of type V with a fixed TTL and size bound.
// It is safe for concurrent use.
type Cache[V any] struct {
	name string
	lru  *expirable.LRU[string, V]
}

// New creates a cache. A ttl <= 0 disables it: Get always misses and Set
// stores nothing. When full, the entry stored longest ago is evicted; reads
// do not refresh an entry.
func New[V any](name string, maxEntries int, ttl time.Duration) *Cache[V] {
	c := &Cache[V]{name: name}
	if ttl <= 0 {
		return c
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c.lru = expirable.NewLRU[string, V](maxEntries, nil, ttl)
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache[V]) Enabled() bool {
	return c.lru != nil
}

// Get returns the live value for key. Expired entries count as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	if c.lru == nil {
		missesTotal.WithLabelValues(c.name).Inc()
		var zero V
		return zero, false
	}
	v, ok := c.lru.Peek(key)
	if ok {
		hitsTotal.WithLabelValues(c.name).Inc()
		return v, true
	}
	missesTotal.WithLabelValues(c.name).Inc()
	return v, false
}

// Set stores v under key.
func (c *Cache[V]) Set(key string, v V) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, v)
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	clearsTotal.WithLabelValues(c.name).Inc()
	if c.lru == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of stored entries, which may include expired
// entries not yet reaped.
func (c *Cache[V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
