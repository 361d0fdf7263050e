package digest

import (
	"net/http"

	"daily-digest/internal/handler/http/respond"
)

// CatalogHandler lists the served content types in catalog order.
type CatalogHandler struct{ Svc Service }

// ServeHTTP lists content types
// @Summary      List content types
// @Description  Returns the served content types in catalog order
// @Tags         digests
// @Produce      json
// @Success      200 {array} ContentTypeDTO
// @Router       /digests [get]
func (h CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	catalog := h.Svc.Catalog()

	out := make([]ContentTypeDTO, 0, len(catalog.ContentTypes))
	for _, ct := range catalog.ContentTypes {
		out = append(out, toContentTypeDTO(ct))
	}
	respond.JSON(w, http.StatusOK, out)
}
