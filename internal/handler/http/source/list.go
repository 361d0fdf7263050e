package source

import (
	"fmt"
	"net/http"
	"sort"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
	"daily-digest/internal/handler/http/respond"
)

// ListHandler lists the sources of every content type, ordered by type.
type ListHandler struct{ Mgr Manager }

// ServeHTTP lists sources
// @Summary      List sources
// @Description  Returns the sources of every content type with their health
// @Tags         sources
// @Produce      json
// @Success      200 {array} TypeDTO
// @Router       /sources [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	all := h.Mgr.StatusAll()

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TypeDTO, 0, len(names))
	for _, name := range names {
		out = append(out, toTypeDTO(name, all[name]))
	}
	respond.JSON(w, http.StatusOK, out)
}

// GetHandler returns the sources of one content type.
type GetHandler struct {
	Mgr     Manager
	Catalog *config.Catalog
}

// ServeHTTP returns the sources of one content type
// @Summary      Get sources
// @Tags         sources
// @Produce      json
// @Param        type path string true "Content type name or alias"
// @Success      200 {object} TypeDTO
// @Failure      404 {object} respond.ErrorBody "Not found - unknown content type"
// @Router       /sources/{type} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := resolveType(h.Catalog, r.PathValue("type"))

	snaps, ok := h.Mgr.Status(name)
	if !ok {
		respond.SafeError(w, http.StatusNotFound,
			fmt.Errorf("%w: %q", entity.ErrUnknownContentType, r.PathValue("type")))
		return
	}
	respond.JSON(w, http.StatusOK, toTypeDTO(name, snaps))
}
