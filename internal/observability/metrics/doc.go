// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the digest metrics:
//   - Upstream metrics (attempts by outcome, retries, latency, response size)
//   - Source metrics (results, auto-disables, enabled gauge, failovers)
//   - Parser failures
//   - Result cache metrics (lookups, evictions, entries)
//
// HTTP server metrics live next to the middleware in internal/handler/http.
// All metrics are registered with the Prometheus default registry and
// exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "daily-digest/internal/observability/metrics"
//
//	func fetch(host string) {
//	    start := time.Now()
//	    body := get(host)
//	    metrics.RecordUpstreamFetch(host, time.Since(start), len(body))
//	}
package metrics
