// Package source serves the source status and administration endpoints.
package source

import (
	"context"
	"net/http"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
)

// Manager is the subset of the source manager used by the handlers.
type Manager interface {
	StatusAll() map[string][]entity.SourceSnapshot
	Status(contentType string) ([]entity.SourceSnapshot, bool)
	Enable(ctx context.Context, contentType, url string) (int, error)
	Disable(ctx context.Context, contentType, url string) (int, error)
	Reset(ctx context.Context, contentType, url string) (int, error)
}

// Register registers the source handlers with the given mux. Content types
// in the path may be catalog aliases.
func Register(mux *http.ServeMux, mgr Manager, catalog *config.Catalog) {
	mux.Handle("GET    /sources", ListHandler{Mgr: mgr})
	mux.Handle("GET    /sources/{type}", GetHandler{Mgr: mgr, Catalog: catalog})

	mux.Handle("POST   /sources/{type}/enable", ActionHandler{Mgr: mgr, Catalog: catalog, Action: ActionEnable})
	mux.Handle("POST   /sources/{type}/disable", ActionHandler{Mgr: mgr, Catalog: catalog, Action: ActionDisable})
	mux.Handle("POST   /sources/{type}/reset", ActionHandler{Mgr: mgr, Catalog: catalog, Action: ActionReset})
}

// resolveType maps an alias to its canonical name. Unknown names are returned
// unchanged so the manager reports them.
func resolveType(catalog *config.Catalog, name string) string {
	if catalog == nil {
		return name
	}
	if ct, ok := catalog.Resolve(name); ok {
		return ct.Name
	}
	return name
}
