// Package tracing provides OpenTelemetry tracing integration.
//
// HTTP requests are traced by Middleware; the digest fetch chain opens one
// span per request and one child span per source attempt through StartSpan.
// Spans go to whatever TracerProvider is installed globally, so tests can
// capture them with an in-memory exporter:
//
//	exporter := tracetest.NewInMemoryExporter()
//	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
package tracing
