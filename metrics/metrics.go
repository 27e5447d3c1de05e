// Package metrics exposes Prometheus collectors for the cache, the
// provider fan-out and the rate limiters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type collectors struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	cacheHitRatio *prometheus.GaugeVec

	providerRequests *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerSkips    *prometheus.CounterVec

	limiterRejections *prometheus.CounterVec
}

var (
	global     *collectors
	globalOnce sync.Once
)

func getCollectors() *collectors {
	globalOnce.Do(func() {
		global = &collectors{
			cacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_cache_hits_total",
					Help: "The total number of cache hits",
				},
				[]string{"cache_type"},
			),
			cacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_cache_misses_total",
					Help: "The total number of cache misses",
				},
				[]string{"cache_type"},
			),
			cacheRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_cache_requests_total",
					Help: "The total number of cache requests",
				},
				[]string{"cache_type"},
			),
			cacheLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "routeweather_cache_duration_seconds",
					Help:    "Cache operation duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"cache_type", "operation"},
			),
			cacheHitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "routeweather_cache_hit_ratio",
					Help: "Cache hit ratio (hits/total requests)",
				},
				[]string{"cache_type"},
			),
			providerRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_provider_requests_total",
					Help: "The total number of provider fetch attempts",
				},
				[]string{"provider"},
			),
			providerErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_provider_errors_total",
					Help: "The total number of failed provider fetches",
				},
				[]string{"provider"},
			),
			providerLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "routeweather_provider_duration_seconds",
					Help:    "Provider fetch duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			providerSkips: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_provider_skips_total",
					Help: "Providers skipped before fan-out, by reason",
				},
				[]string{"provider", "reason"},
			),
			limiterRejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "routeweather_ratelimit_rejections_total",
					Help: "Requests rejected by a general-purpose rate limiter",
				},
				[]string{"limiter"},
			),
		}
	})
	return global
}

// CacheMetrics records hit/miss/latency for one cache instance
type CacheMetrics struct {
	cacheType string
	hits      int64
	misses    int64
	total     int64
	collector *collectors
	mu        sync.RWMutex
}

func NewCacheMetrics(cacheType string) *CacheMetrics {
	return &CacheMetrics{
		cacheType: cacheType,
		collector: getCollectors(),
	}
}

func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	m.hits++
	m.total++
	ratio := float64(m.hits) / float64(m.total)
	m.mu.Unlock()

	m.collector.cacheHits.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheRequests.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheHitRatio.WithLabelValues(m.cacheType).Set(ratio)
}

func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	m.misses++
	m.total++
	ratio := float64(m.hits) / float64(m.total)
	m.mu.Unlock()

	m.collector.cacheMisses.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheRequests.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheHitRatio.WithLabelValues(m.cacheType).Set(ratio)
}

func (m *CacheMetrics) RecordLatency(operation string, seconds float64) {
	m.collector.cacheLatency.WithLabelValues(m.cacheType, operation).Observe(seconds)
}

// Stats is a point-in-time snapshot of cache counters
type Stats struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Total  int64   `json:"total"`
	Ratio  float64 `json:"ratio"`
}

func (m *CacheMetrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{Hits: m.hits, Misses: m.misses, Total: m.total}
	if m.total > 0 {
		s.Ratio = float64(m.hits) / float64(m.total)
	}
	return s
}

// RecordProviderRequest counts one provider fetch attempt
func RecordProviderRequest(provider string, seconds float64, err error) {
	c := getCollectors()
	c.providerRequests.WithLabelValues(provider).Inc()
	c.providerLatency.WithLabelValues(provider).Observe(seconds)
	if err != nil {
		c.providerErrors.WithLabelValues(provider).Inc()
	}
}

// RecordProviderSkip counts a provider excluded before fan-out
func RecordProviderSkip(provider, reason string) {
	getCollectors().providerSkips.WithLabelValues(provider, reason).Inc()
}

// RecordLimiterRejection counts a request rejected by a named limiter
func RecordLimiterRejection(limiter string) {
	getCollectors().limiterRejections.WithLabelValues(limiter).Inc()
}
