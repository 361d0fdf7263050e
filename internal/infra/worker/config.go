package worker

import (
	"fmt"
	"log/slog"
	"time"

	"daily-digest/internal/pkg/config"
)

// SchedulerConfig holds the configuration for the maintenance scheduler.
// It controls when expired cache entries are swept and, optionally, when
// every content type is fetched ahead of demand.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Example usage:
//
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	sched, err := NewScheduler(*cfg, cache, warmer, types, metrics, logger)
type SchedulerConfig struct {
	// SweepSchedule is the cron expression for removing expired cache entries.
	// Format: "minute hour day month weekday"
	// Default: "0 */6 * * *" (every six hours)
	SweepSchedule string

	// WarmSchedule is the cron expression for refreshing every content type.
	// An empty value disables warm-up.
	// Example: "5 0 * * *" (shortly after midnight, when daily digests change)
	// Default: ""
	WarmSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "Asia/Shanghai"
	Timezone string

	// WarmTimeout bounds a whole warm-up run.
	// Range: 10s-1h
	// Default: 5 minutes
	WarmTimeout time.Duration

	// WarmConcurrency is the number of content types refreshed at once.
	// Each content type's source chain stays sequential.
	// Range: 1-32
	// Default: 4
	WarmConcurrency int
}

// DefaultConfig returns a SchedulerConfig with the documented defaults.
func DefaultConfig() SchedulerConfig {
	return SchedulerConfig{
		SweepSchedule:   "0 */6 * * *",
		WarmSchedule:    "",
		Timezone:        "Asia/Shanghai",
		WarmTimeout:     5 * time.Minute,
		WarmConcurrency: 4,
	}
}

// WarmEnabled reports whether a warm-up schedule is configured.
func (c *SchedulerConfig) WarmEnabled() bool {
	return c.WarmSchedule != ""
}

// Validate checks if the configuration values are valid.
// If multiple fields are invalid, all errors are collected and returned together.
func (c *SchedulerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.SweepSchedule); err != nil {
		errors = append(errors, fmt.Errorf("sweep schedule: %w", err))
	}

	if c.WarmEnabled() {
		if err := config.ValidateCronSchedule(c.WarmSchedule); err != nil {
			errors = append(errors, fmt.Errorf("warm schedule: %w", err))
		}
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateDuration(c.WarmTimeout, 10*time.Second, time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("warm timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.WarmConcurrency, 1, 32); err != nil {
		errors = append(errors, fmt.Errorf("warm concurrency: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads the scheduler configuration from environment
// variables with automatic fallback to default values on failure.
//
// Fail-open strategy: each malformed value is replaced by its default, a
// warning is logged and the fallback metrics are updated. The returned error
// is always nil.
//
// Environment variables:
//   - CACHE_SWEEP_SCHEDULE: Cron expression (default: "0 */6 * * *")
//   - CACHE_WARM_SCHEDULE: Cron expression, empty disables (default: "")
//   - SCHEDULER_TIMEZONE: IANA timezone name (default: "Asia/Shanghai")
//   - CACHE_WARM_TIMEOUT: Duration string, e.g., "5m" (default: 5 minutes)
//   - CACHE_WARM_CONCURRENCY: Integer 1-32 (default: 4)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*SchedulerConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	t := config.NewTracker(logger, cm)

	cfg.SweepSchedule = config.Track(t, "sweep_schedule",
		config.LoadEnvWithFallback("CACHE_SWEEP_SCHEDULE", cfg.SweepSchedule, config.ValidateCronSchedule))
	cfg.WarmSchedule = config.Track(t, "warm_schedule",
		config.LoadEnvWithFallback("CACHE_WARM_SCHEDULE", cfg.WarmSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Track(t, "timezone",
		config.LoadEnvWithFallback("SCHEDULER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.WarmTimeout = config.Track(t, "warm_timeout",
		config.LoadEnvDuration("CACHE_WARM_TIMEOUT", cfg.WarmTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Second, time.Hour)
		}))
	cfg.WarmConcurrency = config.Track(t, "warm_concurrency",
		config.LoadEnvInt("CACHE_WARM_CONCURRENCY", cfg.WarmConcurrency, func(v int) error {
			return config.ValidateIntRange(v, 1, 32)
		}))

	t.Done()
	return &cfg, nil
}
