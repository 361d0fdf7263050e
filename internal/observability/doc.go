// Package observability groups the logging, metrics and tracing packages.
//
//   - logging: slog constructors and request ID tagging
//   - metrics: Prometheus recorders for upstream fetches, sources, digests and the cache
//   - tracing: OpenTelemetry spans for HTTP requests and fetch chains
package observability
