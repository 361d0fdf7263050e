// Package respond writes JSON responses and turns errors into bodies that
// never leak upstream credentials or internal detail.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// GenericMessage replaces the text of unexpected server errors.
const GenericMessage = "internal server error"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with status code. A nil v writes only the header.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes err's text unfiltered. Prefer SafeError for anything that
// may carry upstream detail.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, ErrorBody{Error: err.Error()})
}

// AppError pairs a caller-facing message with the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError returns an AppError. err may be nil.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// SafeError writes an error response for err:
//   - an *AppError anywhere in the chain answers with its Code and UserMsg,
//     and its cause is logged;
//   - other 4xx errors are the caller's doing, so their text is returned
//     with credentials masked;
//   - other 5xx errors are logged and answered with GenericMessage.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Default().Error("application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, ErrorBody{Error: appErr.UserMsg})
		return
	}

	if code < http.StatusInternalServerError {
		JSON(w, code, ErrorBody{Error: SanitizeError(err)})
		return
	}

	slog.Default().Error("internal server error",
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, ErrorBody{Error: GenericMessage})
}
