// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream metrics track raw HTTP traffic to digest sources
var (
	// UpstreamAttemptsTotal counts individual HTTP attempts by host and outcome
	UpstreamAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_attempts_total",
			Help: "Total number of upstream HTTP attempts",
		},
		[]string{"host", "outcome"}, // outcome: success, http_error, transport_error, timeout, circuit_open
	)

	// UpstreamRetriesTotal counts retries scheduled after a retryable failure
	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_retries_total",
			Help: "Total number of upstream retries",
		},
		[]string{"host"},
	)

	// UpstreamFetchDuration measures a whole fetch including retries
	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_fetch_duration_seconds",
			Help:    "Time taken to fetch from an upstream including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"host"},
	)

	// UpstreamResponseSize measures response body size in bytes
	UpstreamResponseSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_response_size_bytes",
			Help:    "Upstream response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 9),
		},
	)

	// UpstreamBreakerState is 0 closed, 1 half-open, 2 open, per host
	UpstreamBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_breaker_state",
			Help: "Circuit breaker state per upstream host (0 closed, 1 half-open, 2 open)",
		},
		[]string{"host"},
	)
)

// Source metrics track health bookkeeping and failover
var (
	// SourceResultsTotal counts recorded fetch results per content type
	SourceResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_results_total",
			Help: "Total number of recorded source results",
		},
		[]string{"content_type", "result"}, // result: success, failure
	)

	// SourceAutoDisabledTotal counts automatic disable transitions
	SourceAutoDisabledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_auto_disabled_total",
			Help: "Total number of sources disabled after repeated failures",
		},
		[]string{"content_type"},
	)

	// SourcesEnabled tracks the number of enabled sources per content type
	SourcesEnabled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sources_enabled",
			Help: "Number of enabled sources per content type",
		},
		[]string{"content_type"},
	)

	// FailoversTotal counts substitutions of an alternate source after a failure
	FailoversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_failovers_total",
			Help: "Total number of failover attempts",
		},
		[]string{"content_type"},
	)

	// DigestFetchTotal counts orchestrated fetches by terminal outcome
	DigestFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_fetch_total",
			Help: "Total number of digest fetches by outcome",
		},
		[]string{"content_type", "outcome"}, // outcome: success, exhausted, pinned_failure, invalid, canceled
	)

	// ParseFailuresTotal counts payloads rejected by a parser
	ParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parse_failures_total",
			Help: "Total number of payloads rejected by a parser",
		},
		[]string{"parser"},
	)
)

// Cache metrics track result cache behaviour
var (
	// CacheLookupsTotal counts cache lookups by result
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"result"}, // result: hit, miss, expired
	)

	// CacheEvictionsTotal counts removed cache entries by reason
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_evictions_total",
			Help: "Total number of result cache entries removed",
		},
		[]string{"reason"}, // reason: expired, deleted, cleared
	)

	// CacheEntries tracks the current number of cache entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "result_cache_entries",
			Help: "Current number of result cache entries",
		},
	)
)
