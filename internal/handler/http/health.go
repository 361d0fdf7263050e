// Package http provides the HTTP middleware, health endpoints and metrics
// shared by the digest, source and cache handlers.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/handler/http/respond"
	"daily-digest/internal/infra/cache"
)

// Health is the state of one check or of the whole service.
type Health string

const (
	Healthy   Health = "healthy"
	Degraded  Health = "degraded"
	Unhealthy Health = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    Health                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one check.
type CheckStatus struct {
	Status  Health         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SourceHealthInfo summarizes the sources of one content type.
type SourceHealthInfo struct {
	Total    int `json:"total"`
	Enabled  int `json:"enabled"`
	Failures int `json:"failures"`
}

// SourceReporter exposes the per-content-type source snapshots.
type SourceReporter interface {
	StatusAll() map[string][]entity.SourceSnapshot
}

// CacheReporter exposes the result cache summary.
type CacheReporter interface {
	Status() cache.Status
}

// BreakerReporter exposes the per-host circuit breaker states.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// HealthHandler serves GET /health. Every dependency is optional; a nil one
// is not checked.
//
// The overall status is the worst check. Degraded still answers 200, since
// digests can be served from other sources or the cache; unhealthy answers 503.
type HealthHandler struct {
	DB        *sql.DB
	Version   string
	Sources   SourceReporter
	Cache     CacheReporter
	Upstreams BreakerReporter
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus, 4)
	if h.DB != nil {
		checks["database"] = checkDatabase(ctx, h.DB)
	}
	if h.Sources != nil {
		checks["sources"] = checkSources(h.Sources.StatusAll())
	}
	if h.Upstreams != nil {
		checks["upstreams"] = checkUpstreams(h.Upstreams.BreakerStates())
	}
	if h.Cache != nil {
		checks["cache"] = checkCache(h.Cache.Status())
	}

	status := overall(checks)
	code := http.StatusOK
	if status == Unhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func overall(checks map[string]CheckStatus) Health {
	status := Healthy
	for _, c := range checks {
		switch c.Status {
		case Unhealthy:
			return Unhealthy
		case Degraded:
			status = Degraded
		}
	}
	return status
}

// checkDatabase pings the status store and reports pool usage. A pool at
// 80% or more of its limit is degraded.
func checkDatabase(ctx context.Context, db *sql.DB) CheckStatus {
	if err := db.PingContext(ctx); err != nil {
		return CheckStatus{Status: Unhealthy, Message: respond.SanitizeError(err)}
	}

	stats := db.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
	}
	if stats.MaxOpenConnections > 0 {
		util := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = util
		if util >= 80 {
			return CheckStatus{Status: Degraded, Message: "connection pool utilization above 80%", Details: details}
		}
	}
	return CheckStatus{Status: Healthy, Details: details}
}

// checkSources is degraded when a content type has no enabled source left,
// and unhealthy when nothing is registered at all.
func checkSources(all map[string][]entity.SourceSnapshot) CheckStatus {
	if len(all) == 0 {
		return CheckStatus{Status: Unhealthy, Message: "no content types registered"}
	}

	details := make(map[string]any, len(all)+1)
	var exhausted []string
	for contentType, snaps := range all {
		info := SourceHealthInfo{Total: len(snaps)}
		for _, s := range snaps {
			if s.Enabled {
				info.Enabled++
			}
			info.Failures += s.FailureCount
		}
		if info.Enabled == 0 {
			exhausted = append(exhausted, contentType)
		}
		details[contentType] = info
	}
	if len(exhausted) == 0 {
		return CheckStatus{Status: Healthy, Details: details}
	}
	sort.Strings(exhausted)
	details["exhausted"] = exhausted
	return CheckStatus{Status: Degraded, Message: "some content types have no enabled source", Details: details}
}

// checkUpstreams is degraded while any host's breaker is open.
func checkUpstreams(states map[string]string) CheckStatus {
	var open []string
	for host, state := range states {
		if state == "open" {
			open = append(open, host)
		}
	}
	details := map[string]any{"hosts": len(states)}
	if len(open) == 0 {
		return CheckStatus{Status: Healthy, Details: details}
	}
	sort.Strings(open)
	details["open"] = open
	return CheckStatus{Status: Degraded, Message: "circuit open for some upstream hosts", Details: details}
}

func checkCache(st cache.Status) CheckStatus {
	return CheckStatus{
		Status: Healthy,
		Details: map[string]any{
			"total":   st.Total,
			"valid":   st.Valid,
			"expired": st.Expired,
		},
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Debug("probe response not written", slog.Any("error", err))
	}
}

// ReadyHandler serves GET /ready. The service is ready once content types
// are registered and, with a SQL status store, the database answers.
type ReadyHandler struct {
	DB      *sql.DB
	Sources SourceReporter
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Sources != nil && len(h.Sources.StatusAll()) == 0 {
		writeText(w, http.StatusServiceUnavailable, "no content types registered")
		return
	}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			writeText(w, http.StatusServiceUnavailable, "database not ready: "+respond.SanitizeError(err))
			return
		}
	}
	writeText(w, http.StatusOK, "ready")
}

// LiveHandler serves GET /live and always answers 200 while the process runs.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "alive")
}
