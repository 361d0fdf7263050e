// Package logging builds the slog loggers used by the API server and
// digestctl, and tags request-scoped loggers with the request ID.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//	    logging.WithRequestID(r.Context(), h.Logger).Info("digest served")
//	}
package logging
