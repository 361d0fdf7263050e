// Package digest serves the content catalog and rendered digests.
package digest

import (
	"context"
	"log/slog"
	"net/http"

	"daily-digest/internal/config"
	fetchUC "daily-digest/internal/usecase/fetch"
)

// Service is the subset of the fetch service used by the handlers.
type Service interface {
	Get(ctx context.Context, req fetchUC.DigestRequest) (*fetchUC.Digest, error)
	Catalog() *config.Catalog
}

// Register registers the digest handlers with the given mux.
func Register(mux *http.ServeMux, svc Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	mux.Handle("GET    /digests", CatalogHandler{Svc: svc})
	mux.Handle("GET    /digests/{type}", GetHandler{Svc: svc, Logger: logger})
}
