package http

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"daily-digest/internal/handler/http/pathutil"
	"daily-digest/internal/handler/http/responsewriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route template and status",
	}, []string{"method", "path", "status"})

	// Buckets reach from a cache hit to a full failover chain.
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route template and status",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	// Image digests are relayed raw and reach the megabyte range.
	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response body size by route template and body kind",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"path", "kind"})

	httpDigestCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_digest_cache_total",
		Help: "Digest responses by X-Cache outcome",
	}, []string{"result"})
)

// responseKind buckets a Content-Type into json, image, text or other.
func responseKind(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "other"
	}
	switch {
	case mt == "application/json":
		return "json"
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case strings.HasPrefix(mt, "text/"):
		return "text"
	}
	return "other"
}

// MetricsMiddleware records request counts, latency and response sizes under
// normalized route templates, and the cache outcome of digest responses.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		path := pathutil.NormalizePath(r.URL.Path)
		rw := responsewriter.Wrap(w)

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start).Seconds()

		status := strconv.Itoa(rw.StatusCode())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(elapsed)
		if rw.BytesWritten() > 0 {
			httpResponseSize.WithLabelValues(path, responseKind(rw.ContentType())).Observe(float64(rw.BytesWritten()))
		}
		if c := rw.Header().Get("X-Cache"); c != "" {
			httpDigestCache.WithLabelValues(strings.ToLower(c)).Inc()
		}
	})
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
