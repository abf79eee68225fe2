// Package metrics exposes the engine's Prometheus instruments. All metrics
// are registered once at init via promauto and written to directly from the
// engine; the /metrics endpoint is wired in internal/api.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed household analyses by resulting tier
	// ("normal", "suspicious", "critical", "insufficient_data", "error").
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seniorsafe_analyses_total",
			Help: "Total number of household risk analyses by outcome",
		},
		[]string{"outcome"},
	)

	// GatewayLatency observes the wall time of model gateway calls.
	GatewayLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seniorsafe_gateway_latency_seconds",
			Help:    "Latency of text-model gateway calls",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// GatewayFailures counts failed model invocations.
	GatewayFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seniorsafe_gateway_failures_total",
			Help: "Total number of failed text-model gateway calls",
		},
	)

	// ParseFallbacks counts model replies that could not be decoded into the
	// target schema and degraded to the fixed fallback record.
	ParseFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seniorsafe_parse_fallbacks_total",
			Help: "Total number of model replies that fell back to the fixed record",
		},
	)

	// BatchSweeps counts completed batch evaluations.
	BatchSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seniorsafe_batch_sweeps_total",
			Help: "Total number of completed batch household evaluations",
		},
	)

	// AtRiskHouseholds is the at-risk count from the most recent sweep.
	AtRiskHouseholds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seniorsafe_at_risk_households",
			Help: "Households flagged suspicious or critical in the last sweep",
		},
	)

	// CacheHits and CacheMisses track the Redis analysis cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seniorsafe_analysis_cache_hits_total",
			Help: "Total number of analysis cache hits",
		},
	)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seniorsafe_analysis_cache_misses_total",
			Help: "Total number of analysis cache misses",
		},
	)
)
