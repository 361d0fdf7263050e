package metrics

import (
	"time"
)

// RecordUpstreamAttempt records a single HTTP attempt against an upstream host.
// Outcome should be one of success, http_error, transport_error, timeout or circuit_open.
func RecordUpstreamAttempt(host, outcome string) {
	UpstreamAttemptsTotal.WithLabelValues(host, outcome).Inc()
}

// SetBreakerState publishes the circuit breaker state of host. state uses
// gobreaker's numbering: 0 closed, 1 half-open, 2 open.
func SetBreakerState(host string, state int) {
	UpstreamBreakerState.WithLabelValues(host).Set(float64(state))
}

// RecordUpstreamRetry records a retry scheduled against an upstream host.
func RecordUpstreamRetry(host string) {
	UpstreamRetriesTotal.WithLabelValues(host).Inc()
}

// RecordUpstreamFetch records the duration of a complete fetch, retries included,
// and the size of the body when the fetch succeeded.
func RecordUpstreamFetch(host string, duration time.Duration, size int) {
	UpstreamFetchDuration.WithLabelValues(host).Observe(duration.Seconds())
	if size > 0 {
		UpstreamResponseSize.Observe(float64(size))
	}
}

// RecordSourceResult records a success or failure against a content type.
func RecordSourceResult(contentType string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	SourceResultsTotal.WithLabelValues(contentType, result).Inc()
}

// RecordSourceAutoDisabled records a source being disabled after repeated failures.
func RecordSourceAutoDisabled(contentType string) {
	SourceAutoDisabledTotal.WithLabelValues(contentType).Inc()
}

// UpdateSourcesEnabled sets the number of enabled sources for a content type.
func UpdateSourcesEnabled(contentType string, count int) {
	SourcesEnabled.WithLabelValues(contentType).Set(float64(count))
}

// RecordFailover records an attempt on an alternate source.
func RecordFailover(contentType string) {
	FailoversTotal.WithLabelValues(contentType).Inc()
}

// RecordDigestFetch records the terminal outcome of an orchestrated fetch.
func RecordDigestFetch(contentType, outcome string) {
	DigestFetchTotal.WithLabelValues(contentType, outcome).Inc()
}

// RecordParseFailure records a payload rejected by the named parser.
func RecordParseFailure(parser string) {
	ParseFailuresTotal.WithLabelValues(parser).Inc()
}

// RecordCacheLookup records a cache lookup. Result should be hit, miss or expired.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheEvictions records removed cache entries for the given reason.
func RecordCacheEvictions(reason string, count int) {
	if count <= 0 {
		return
	}
	CacheEvictionsTotal.WithLabelValues(reason).Add(float64(count))
}

// UpdateCacheEntries sets the current number of cache entries.
func UpdateCacheEntries(count int) {
	CacheEntries.Set(float64(count))
}
