package config

import "log/slog"

// Tracker collects the fallbacks of one configuration load.
type Tracker struct {
	logger  *slog.Logger
	metrics *ConfigMetrics
	active  bool
}

// NewTracker returns a Tracker. Both arguments may be nil.
func NewTracker(logger *slog.Logger, metrics *ConfigMetrics) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger, metrics: metrics}
}

// Track records r under field and returns its value.
func Track[T any](t *Tracker, field string, r Result[T]) T {
	if r.FallbackApplied {
		t.active = true
		t.metrics.RecordFallback(field)
		t.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
	}
	return r.Value
}

// FallbackApplied reports whether any tracked value fell back to its default.
func (t *Tracker) FallbackApplied() bool {
	return t.active
}

// Done publishes the fallback gauge and the load timestamp.
func (t *Tracker) Done() {
	t.metrics.SetFallbackActive(t.active)
	t.metrics.RecordLoadTimestamp()
}
