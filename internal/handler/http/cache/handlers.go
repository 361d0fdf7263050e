package cache

import (
	"fmt"
	"net/http"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
	"daily-digest/internal/handler/http/respond"
	infraCache "daily-digest/internal/infra/cache"
)

// RemovedResponse reports how many entries an operation dropped.
type RemovedResponse struct {
	ContentType string `json:"type,omitempty"`
	Removed     int    `json:"removed"`
}

type StatusHandler struct{ Cache Cache }

// ServeHTTP reports cache counts
// @Summary      Cache status
// @Tags         cache
// @Produce      json
// @Success      200 {object} infraCache.Status
// @Router       /cache [get]
func (h StatusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	st := h.Cache.Status()
	if st.Types == nil {
		st.Types = map[string]int{}
	}
	respond.JSON(w, http.StatusOK, st)
}

// EntriesHandler lists live and expired entries ordered by key.
type EntriesHandler struct{ Cache Cache }

// ServeHTTP lists cache entries
// @Summary      List cache entries
// @Tags         cache
// @Produce      json
// @Success      200 {array} infraCache.EntryInfo
// @Router       /cache/entries [get]
func (h EntriesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	entries := h.Cache.Entries()
	if entries == nil {
		entries = []infraCache.EntryInfo{}
	}
	respond.JSON(w, http.StatusOK, entries)
}

type ClearHandler struct{ Cache Cache }

// ServeHTTP drops every entry
// @Summary      Clear cache
// @Tags         cache
// @Produce      json
// @Success      200 {object} RemovedResponse
// @Router       /cache [delete]
func (h ClearHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, RemovedResponse{Removed: h.Cache.Clear()})
}

// ClearTypeHandler drops every entry of one content type. Aliases are
// resolved through the catalog; names outside the catalog are 404.
type ClearTypeHandler struct {
	Cache   Cache
	Catalog *config.Catalog
}

// ServeHTTP drops the entries of one content type
// @Summary      Clear one content type
// @Tags         cache
// @Produce      json
// @Param        type path string true "Content type name or alias"
// @Success      200 {object} RemovedResponse
// @Failure      404 {object} respond.ErrorBody "Not found - unknown content type"
// @Router       /cache/{type} [delete]
func (h ClearTypeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("type")
	if h.Catalog != nil {
		ct, ok := h.Catalog.Resolve(name)
		if !ok {
			respond.SafeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", entity.ErrUnknownContentType, name))
			return
		}
		name = ct.Name
	}
	respond.JSON(w, http.StatusOK, RemovedResponse{ContentType: name, Removed: h.Cache.DeleteByType(name)})
}

// SweepHandler removes expired entries on demand, the same work the
// scheduler's sweep job does.
type SweepHandler struct{ Cache Cache }

// ServeHTTP removes expired entries
// @Summary      Sweep expired entries
// @Tags         cache
// @Produce      json
// @Success      200 {object} RemovedResponse
// @Router       /cache/sweep [post]
func (h SweepHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, RemovedResponse{Removed: h.Cache.ClearExpired()})
}
