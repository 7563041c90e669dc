// Package metrics holds the Prometheus collectors of the catalog service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream traffic
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasycards_upstream_requests_total",
		Help: "Requests sent to upstream catalogs by final HTTP status.",
	}, []string{"upstream", "status"})

	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasycards_upstream_retries_total",
		Help: "Attempts retried after an upstream rate limit response.",
	}, []string{"upstream"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fantasycards_upstream_request_duration_seconds",
		Help:    "Duration of single upstream HTTP attempts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"upstream"})

	// Aggregation
	CatalogSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fantasycards_catalog_entries",
		Help: "Entries in the most recently aggregated catalog per kind.",
	}, []string{"kind"})

	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fantasycards_aggregation_duration_seconds",
		Help:    "Time to assemble a full catalog from its upstream pages or topics.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"kind"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasycards_cache_lookups_total",
		Help: "Catalog and detail cache lookups by result.",
	}, []string{"shape", "result"}) // result: hit, miss

	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasycards_enrichment_failures_total",
		Help: "Best-effort detail enrichments that failed and were dropped.",
	}, []string{"kind", "enrichment"})
)

// RecordUpstream records one finished upstream attempt.
func RecordUpstream(upstream string, status int, start time.Time) {
	UpstreamRequests.WithLabelValues(upstream, statusLabel(status)).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}

// RecordAggregation records a completed aggregation of a catalog.
func RecordAggregation(kind string, entries int, start time.Time) {
	CatalogSize.WithLabelValues(kind).Set(float64(entries))
	AggregationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// RecordCache records a cache lookup outcome.
func RecordCache(shape string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(shape, result).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
