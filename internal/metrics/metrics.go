package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation metrics
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_generations_total",
			Help: "Total number of story generations by parse outcome",
		},
		[]string{"outcome"}, // strict, repaired, salvaged, unavailable
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextdawn_generation_duration_seconds",
			Help:    "Duration of LLM story generation",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 90},
		},
	)

	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_cache_lookups_total",
			Help: "Total number of story cache lookups",
		},
		[]string{"result"}, // hit, miss, stale, error
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_cache_writes_total",
			Help: "Total number of story cache writes",
		},
		[]string{"operation", "status"}, // insert/replace/skipped, success/error
	)

	LockWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_lock_waits_total",
			Help: "Total number of waits on a story generation lock held elsewhere",
		},
		[]string{"result"}, // filled, timeout
	)

	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_api_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"api", "endpoint", "status"}, // gamma/tavily, /events, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextdawn_api_request_duration_seconds",
			Help:    "Duration of upstream API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	// Sync metrics
	MarketsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextdawn_markets_synced_total",
			Help: "Total number of market records upserted by the syncer",
		},
		[]string{"category"},
	)
)

// RecordGeneration records a generation outcome and its latency
func RecordGeneration(outcome string, duration time.Duration) {
	Generations.WithLabelValues(outcome).Inc()
	GenerationDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records the result of a cache lookup
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheWrite records a cache write attempt
func RecordCacheWrite(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CacheWrites.WithLabelValues(operation, status).Inc()
}

// RecordLockWait records how a wait on a held lock ended
func RecordLockWait(filled bool) {
	result := "filled"
	if !filled {
		result = "timeout"
	}
	LockWaits.WithLabelValues(result).Inc()
}

// RecordAPIRequest records API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordMarketsSynced adds to the synced record count of a category
func RecordMarketsSynced(category string, n int) {
	MarketsSynced.WithLabelValues(category).Add(float64(n))
}
