// Package cache serves the result cache inspection and maintenance endpoints.
package cache

import (
	"net/http"

	"daily-digest/internal/config"
	infraCache "daily-digest/internal/infra/cache"
)

// Cache is the subset of the result cache used by the handlers.
type Cache interface {
	Status() infraCache.Status
	Entries() []infraCache.EntryInfo
	Clear() int
	DeleteByType(contentType string) int
	ClearExpired() int
}

// Register registers the cache handlers with the given mux.
func Register(mux *http.ServeMux, c Cache, catalog *config.Catalog) {
	mux.Handle("GET    /cache", StatusHandler{Cache: c})
	mux.Handle("GET    /cache/entries", EntriesHandler{Cache: c})
	mux.Handle("DELETE /cache", ClearHandler{Cache: c})
	mux.Handle("DELETE /cache/{type}", ClearTypeHandler{Cache: c, Catalog: catalog})
	mux.Handle("POST   /cache/sweep", SweepHandler{Cache: c})
}
