package digest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/handler/http/respond"
	"daily-digest/internal/observability/logging"
	fetchUC "daily-digest/internal/usecase/fetch"
)

// GetHandler returns the digest of one content type.
//
// Query parameters:
//   - format: "text" or "image"; defaults to the content type default
//   - source: 1-based index pinning one enabled source
//   - refresh: skip the cache lookup
//
// Image digests carrying a binary payload are written raw; everything else
// is JSON. X-Cache reports HIT or MISS.
type GetHandler struct {
	Svc    Service
	Logger *slog.Logger
}

// ServeHTTP returns one digest
// @Summary      Get digest
// @Description  Returns the digest of a content type from the cache or its sources. Image digests with a binary payload are written raw.
// @Tags         digests
// @Produce      json,png
// @Param        type path string true "Content type name or alias"
// @Param        format query string false "Output format" Enums(text, image)
// @Param        source query int false "1-based index pinning one enabled source"
// @Param        refresh query bool false "Skip the cache lookup"
// @Success      200 {object} fetchUC.Digest "Digest" headers(X-Cache=string)
// @Failure      400 {object} respond.ErrorBody "Bad request - unsupported format or source index"
// @Failure      404 {object} respond.ErrorBody "Not found - unknown content type"
// @Failure      500 {object} respond.ErrorBody "Internal server error"
// @Failure      502 {object} respond.ErrorBody "Upstream sources failed"
// @Failure      503 {object} respond.ErrorBody "No enabled source or request canceled"
// @Failure      504 {object} respond.ErrorBody "Upstream sources timed out"
// @Router       /digests/{type} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := fetchUC.DigestRequest{
		ContentType: r.PathValue("type"),
		Format:      q.Get("format"),
	}

	if v := q.Get("source"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 1 {
			respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid source index %q: must be a positive integer", v))
			return
		}
		req.SourceIndex = idx
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid refresh flag %q", v))
			return
		}
		req.Refresh = refresh
	}

	d, err := h.Svc.Get(r.Context(), req)
	if err != nil {
		h.writeError(w, r, req, err)
		return
	}

	if d.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	if d.Format == entity.FormatImage && d.Bundle.HasBinary() {
		w.Header().Set("Content-Type", http.DetectContentType(d.Bundle.BinaryPayload))
		w.Header().Set("Content-Length", strconv.Itoa(len(d.Bundle.BinaryPayload)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(d.Bundle.BinaryPayload); err != nil {
			h.Logger.Warn("failed to write image digest",
				slog.String("content_type", d.ContentType),
				slog.Any("error", err))
		}
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

// writeError maps fetch errors to status codes. Upstream failures are
// checked first so a source error never reads as a bad request; they keep a
// user-facing message while the cause is only logged.
func (h GetHandler) writeError(w http.ResponseWriter, r *http.Request, req fetchUC.DigestRequest, err error) {
	logger := logging.WithRequestID(r.Context(), h.Logger)

	var cfgErr *entity.ConfigurationError
	switch {
	case fetchUC.IsCanceled(err):
		logger.Info("digest request canceled", slog.String("content_type", req.ContentType))
		respond.SafeError(w, http.StatusServiceUnavailable,
			respond.NewAppError(http.StatusServiceUnavailable, "request canceled", nil))
	case errors.Is(err, fetchUC.ErrFetchDeadlineExceeded):
		logger.Warn("digest fetch timed out", slog.String("content_type", req.ContentType), slog.Any("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusGatewayTimeout,
			respond.NewAppError(http.StatusGatewayTimeout, "upstream sources timed out", nil))
	case errors.Is(err, entity.ErrNoAvailableSource):
		code := http.StatusBadGateway
		msg := "all upstream sources failed"
		var nas *entity.NoAvailableSourceError
		if errors.As(err, &nas) && nas.Cause == nil {
			code = http.StatusServiceUnavailable
			msg = "no enabled source"
		}
		logger.Warn("digest unavailable", slog.String("content_type", req.ContentType), slog.Any("error", respond.SanitizeError(err)))
		respond.SafeError(w, code, respond.NewAppError(code, msg, nil))
	case fetchUC.IsUpstreamFailure(err):
		logger.Warn("pinned source failed",
			slog.String("content_type", req.ContentType),
			slog.Int("source_index", req.SourceIndex),
			slog.Any("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusBadGateway,
			respond.NewAppError(http.StatusBadGateway, "upstream source failed", nil))
	case errors.Is(err, entity.ErrUnknownContentType):
		respond.SafeError(w, http.StatusNotFound, err)
	case errors.Is(err, entity.ErrUnsupportedFormat):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.As(err, &cfgErr):
		respond.SafeError(w, http.StatusBadRequest, respond.NewAppError(http.StatusBadRequest, cfgErr.Message, err))
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
