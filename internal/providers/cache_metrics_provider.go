package providers

import "srd/internal/structures"

// NewInstrumentedCacheProvider builds the response cache with hit/miss
// accounting on reads. A disabled cache stays the plain noop: every
// lookup on it would be a miss, and counting those would bury the real
// hit rate.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &countingCache{inner: inner, metrics: metrics}
}

// countingCache feeds the cache hit/miss counters. Writes pass through
// uncounted.
type countingCache struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *countingCache) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *countingCache) Set(key string, value []byte) {
	c.inner.Set(key, value)
}
