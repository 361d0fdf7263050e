package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"daily-digest/internal/handler/http/requestid"
	"daily-digest/internal/handler/http/respond"
	"daily-digest/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel/trace"
)

// Logging logs one line per request with the request and trace IDs. Digest
// responses also carry the cache outcome and content type, which tells image
// passthrough apart from JSON.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := responsewriter.Wrap(w)

			next.ServeHTTP(rw, r)

			traceID := trace.SpanFromContext(r.Context()).SpanContext().TraceID().String()
			attrs := []slog.Attr{
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", traceID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", rw.StatusCode()),
				slog.Int("bytes", rw.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			}
			if c := rw.Header().Get("X-Cache"); c != "" {
				attrs = append(attrs, slog.String("cache", c))
			}
			if ct := rw.ContentType(); ct != "" {
				attrs = append(attrs, slog.String("content_type", ct))
			}

			level := slog.LevelInfo
			if rw.StatusCode() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}

// Recover turns a handler panic into a 500 and logs the stack. Nothing is
// written when the handler already sent its header.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := responsewriter.Wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if !rw.Written() {
					respond.SafeError(rw, http.StatusInternalServerError, fmt.Errorf("internal error"))
				}
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("header_sent", rw.Written()),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes. Only the source action
// endpoints read a body.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
