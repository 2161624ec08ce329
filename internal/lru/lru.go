package lru

import (
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// getsPerPromote is the number of gets after which an item is moved to the
// front of the LRU list
const getsPerPromote = 64

// itemsToPruneDiv prunes 1/16 of the items when the cache is full
const itemsToPruneDiv = 16

// Cache wraps a ccache and reports its size and hits/misses to Prometheus
type Cache struct {
	op                  string
	duration            time.Duration
	cache               *ccache.Cache
	metricCachedEntries *prometheus.GaugeVec
	metricCacheRequests *prometheus.CounterVec
}

// New creates an LRU cache holding up to maxEntries items for duration each.
// op labels the metrics of this cache.
func New(op string, maxEntries int64, duration time.Duration, cachedEntriesMetric *prometheus.GaugeVec, cacheRequestsMetric *prometheus.CounterVec) *Cache {
	prune := uint32(maxEntries) / itemsToPruneDiv
	if prune == 0 {
		prune = 1
	}

	configuration := ccache.Configure()
	configuration.MaxSize(maxEntries)
	configuration.ItemsToPrune(prune)
	configuration.GetsPerPromote(getsPerPromote)
	configuration.OnDelete(func(*ccache.Item) {
		cachedEntriesMetric.WithLabelValues(op).Dec()
	})

	return &Cache{
		op:                  op,
		cache:               ccache.New(configuration),
		duration:            duration,
		metricCachedEntries: cachedEntriesMetric,
		metricCacheRequests: cacheRequestsMetric,
	}
}

// FindOrFetch returns the cached value for key if it exists and is not
// expired. Otherwise it stores and returns the value produced by fetchFn.
func (c *Cache) FindOrFetch(key string, fetchFn func() (interface{}, error)) (interface{}, error) {
	item := c.cache.Get(key)

	if item != nil && !item.Expired() {
		c.metricCacheRequests.WithLabelValues(c.op, "hit").Inc()
		return item.Value(), nil
	}

	value, err := fetchFn()
	if err != nil {
		c.metricCacheRequests.WithLabelValues(c.op, "error").Inc()
		return nil, err
	}

	// replacing an expired item calls OnDelete for it, which keeps the
	// entries gauge balanced
	c.metricCacheRequests.WithLabelValues(c.op, "miss").Inc()
	c.metricCachedEntries.WithLabelValues(c.op).Inc()

	c.cache.Set(key, value, c.duration)

	return value, nil
}

// Stop halts the background worker of the cache
func (c *Cache) Stop() {
	c.cache.Stop()
}
