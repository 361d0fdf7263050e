package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"daily-digest/internal/handler/http/requestid"
)

// ParseLevel maps debug, info, warn (or warning) and error to a slog level,
// case-insensitively. Anything else yields fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// LevelFromEnv reads LOG_LEVEL, defaulting to info.
func LevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
}

// New returns a JSON logger writing to w. Source locations are added at
// debug level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))
}

// NewLogger returns the server logger: JSON on stdout at LOG_LEVEL.
func NewLogger() *slog.Logger {
	return New(os.Stdout, LevelFromEnv())
}

// NewTextLogger returns a human-readable logger writing to w, used by the CLI.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithRequestID adds the request ID from ctx to logger, when there is one.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}
