// Package config loads the content catalog and the service-wide settings.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"daily-digest/internal/domain/entity"
	pkgconfig "daily-digest/internal/pkg/config"
)

// Status store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// AppConfig holds the service-wide settings.
// Retry count and per-attempt timeout belong to fetcher.Config, which reads
// MAX_RETRIES and FETCH_TIMEOUT itself.
type AppConfig struct {
	// CacheTTL is the default lifetime of cached digests.
	// Default: 1h
	CacheTTL time.Duration

	// AutoFailover lets a failed fetch continue with the remaining sources.
	// Default: true
	AutoFailover bool

	// DefaultFormat is the global output format preference ("image" or "text").
	// It also drives format negotiation for content types with a format parameter.
	// Default: "image"
	DefaultFormat string

	// FetchDeadline bounds a whole failover chain. 0 disables the bound.
	// Default: 0
	FetchDeadline time.Duration

	// StatusStore selects where source enabled flags are persisted:
	// "file", "sqlite" or "postgres".
	// Default: "file"
	StatusStore string

	// StatusFile is the JSON document used by the file store.
	StatusFile string

	// SQLitePath is the database file used by the sqlite store.
	SQLitePath string

	// DatabaseURL is the PostgreSQL DSN used by the postgres store.
	DatabaseURL string

	// CatalogFile overrides the built-in catalog when set.
	CatalogFile string
}

// DefaultAppConfig returns the defaults listed on AppConfig.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		CacheTTL:      time.Hour,
		AutoFailover:  true,
		DefaultFormat: entity.FormatImage,
		FetchDeadline: 0,
		StatusStore:   StoreFile,
		StatusFile:    "data/source_status.json",
		SQLitePath:    "data/daily_digest.db",
	}
}

// Validate checks the settings. All problems are reported together.
func (c *AppConfig) Validate() error {
	var errs []error

	if err := pkgconfig.ValidateDuration(c.CacheTTL, time.Second, 7*24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("cache ttl: %w", err))
	}
	if c.FetchDeadline < 0 {
		errs = append(errs, fmt.Errorf("fetch deadline: must not be negative, got %v", c.FetchDeadline))
	}
	if !entity.ValidFormat(c.DefaultFormat) {
		errs = append(errs, fmt.Errorf("default format: must be %q or %q, got %q", entity.FormatImage, entity.FormatText, c.DefaultFormat))
	}

	switch c.StatusStore {
	case StoreFile:
		if c.StatusFile == "" {
			errs = append(errs, fmt.Errorf("status file: required for the file store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("sqlite path: required for the sqlite store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL: required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("status store: unknown backend %q", c.StatusStore))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadAppConfig reads the settings from environment variables.
//
// Malformed values of tunables fall back to their default with a warning,
// as the worker configuration does. The result is then validated, so an
// unusable store selection is still an error.
//
// Environment variables:
//   - CACHE_TTL: duration (default: 1h)
//   - AUTO_FAILOVER: bool (default: true)
//   - DEFAULT_FORMAT: "image" or "text" (default: image)
//   - FETCH_DEADLINE: duration, 0 disables (default: 0)
//   - STATUS_STORE: file, sqlite or postgres (default: file)
//   - STATUS_FILE, SQLITE_PATH, DATABASE_URL, CATALOG_FILE: strings
//
// metrics may be nil.
func LoadAppConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	t := pkgconfig.NewTracker(logger, metrics)

	cfg.CacheTTL = pkgconfig.Track(t, "cache_ttl",
		pkgconfig.LoadEnvDuration("CACHE_TTL", cfg.CacheTTL, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Second, 7*24*time.Hour)
		}))
	cfg.AutoFailover = pkgconfig.Track(t, "auto_failover",
		pkgconfig.LoadEnvBool("AUTO_FAILOVER", cfg.AutoFailover))
	cfg.DefaultFormat = pkgconfig.Track(t, "default_format",
		pkgconfig.LoadEnvWithFallback("DEFAULT_FORMAT", cfg.DefaultFormat,
			pkgconfig.OneOf(entity.FormatImage, entity.FormatText)))
	cfg.FetchDeadline = pkgconfig.Track(t, "fetch_deadline",
		pkgconfig.LoadEnvDuration("FETCH_DEADLINE", cfg.FetchDeadline, pkgconfig.ValidateNonNegativeDuration))

	cfg.StatusStore = strings.ToLower(pkgconfig.LoadEnvString("STATUS_STORE", cfg.StatusStore))
	cfg.StatusFile = pkgconfig.LoadEnvString("STATUS_FILE", cfg.StatusFile)
	cfg.SQLitePath = pkgconfig.LoadEnvString("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.CatalogFile = pkgconfig.LoadEnvString("CATALOG_FILE", cfg.CatalogFile)

	t.Done()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app configuration: %w", err)
	}
	return &cfg, nil
}
