package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"daily-digest/internal/config"
	"daily-digest/internal/domain/entity"
	"daily-digest/internal/handler/http/respond"
	srcUC "daily-digest/internal/usecase/source"
)

// Source actions.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
	ActionReset   = "reset"
)

// ActionHandler enables, disables or resets sources of one content type.
// The body is {"url": "<source url>"} or {"url": "all"}.
type ActionHandler struct {
	Mgr     Manager
	Catalog *config.Catalog
	Action  string
}

// ServeHTTP enables, disables or resets sources
// @Summary      Change source state
// @Description  Enables, disables or resets one source, or every source of the type when url is "all"
// @Tags         sources
// @Accept       json
// @Produce      json
// @Param        type path string true "Content type name or alias"
// @Param        request body ActionRequest true "Source URL or all"
// @Success      200 {object} ActionResponse "Affected sources" headers(Warning=string)
// @Failure      400 {object} respond.ErrorBody "Bad request - missing url"
// @Failure      404 {object} respond.ErrorBody "Not found - unknown content type or source"
// @Failure      500 {object} respond.ErrorBody "Internal server error"
// @Router       /sources/{type}/enable [post]
// @Router       /sources/{type}/disable [post]
// @Router       /sources/{type}/reset [post]
func (h ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	name := resolveType(h.Catalog, r.PathValue("type"))

	var op func(context.Context, string, string) (int, error)
	switch h.Action {
	case ActionEnable:
		op = h.Mgr.Enable
	case ActionDisable:
		op = h.Mgr.Disable
	case ActionReset:
		op = h.Mgr.Reset
	default:
		respond.SafeError(w, http.StatusNotFound, fmt.Errorf("action %q not found", h.Action))
		return
	}

	n, err := op(r.Context(), name, req.URL)
	switch {
	case err == nil:
	case errors.Is(err, srcUC.ErrStatusNotPersisted):
		// The in-memory state changed; only persisting it failed.
		w.Header().Set("Warning", `199 - "source state not persisted"`)
	case errors.Is(err, entity.ErrUnknownContentType), errors.Is(err, srcUC.ErrSourceNotFound):
		respond.SafeError(w, http.StatusNotFound, err)
		return
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, ActionResponse{
		ContentType: name,
		Action:      h.Action,
		URL:         req.URL,
		Affected:    n,
	})
}
