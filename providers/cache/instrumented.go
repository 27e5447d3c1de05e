package cache

import (
	"context"
	"log/slog"
	"time"

	"routeweather.app/metrics"
)

// Instrumented wraps a backend and records hit/miss/latency metrics
type Instrumented struct {
	cache   Cache
	metrics *metrics.CacheMetrics
}

func NewInstrumented(cache Cache, cacheType string) *Instrumented {
	return &Instrumented{
		cache:   cache,
		metrics: metrics.NewCacheMetrics(cacheType),
	}
}

// Backend returns the wrapped cache, for lifecycle management
func (c *Instrumented) Backend() Cache {
	return c.cache
}

func (c *Instrumented) measureLatency(operation string, fn func()) {
	start := time.Now()
	fn()
	c.metrics.RecordLatency(operation, time.Since(start).Seconds())
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	var found bool

	c.measureLatency("get", func() {
		data, found = c.cache.Get(ctx, key)
	})

	if found {
		c.metrics.RecordHit()
		slog.Debug("cache hit", "key", key)
	} else {
		c.metrics.RecordMiss()
		slog.Debug("cache miss", "key", key)
	}

	return data, found
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.measureLatency("set", func() {
		c.cache.Set(ctx, key, value, ttl)
	})
}

func (c *Instrumented) Delete(ctx context.Context, key string) {
	c.cache.Delete(ctx, key)
}

func (c *Instrumented) Exists(ctx context.Context, key string) bool {
	return c.cache.Exists(ctx, key)
}

func (c *Instrumented) Keys(ctx context.Context, pattern string) []string {
	return c.cache.Keys(ctx, pattern)
}

func (c *Instrumented) FlushPattern(ctx context.Context, pattern string) {
	c.cache.FlushPattern(ctx, pattern)
}

// Metrics exposes the counters for status endpoints
func (c *Instrumented) Metrics() *metrics.CacheMetrics {
	return c.metrics
}
