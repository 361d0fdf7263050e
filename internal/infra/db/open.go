// Package db opens the SQL status store and owns its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pkgconfig "daily-digest/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imported database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// sqlitePragmas let the CLI and the server share one database file.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// PoolConfig holds the database/sql pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig suits the status store, which sees a handful of writes
// per digest request.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

func positiveInt(v int) error {
	if v <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// PoolConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values fall back
// to DefaultPoolConfig with a warning on logger.
func PoolConfigFromEnv(logger *slog.Logger) PoolConfig {
	def := DefaultPoolConfig()
	t := pkgconfig.NewTracker(logger, nil)
	return PoolConfig{
		MaxOpenConns:    pkgconfig.Track(t, "db_max_open_conns", pkgconfig.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positiveInt)),
		MaxIdleConns:    pkgconfig.Track(t, "db_max_idle_conns", pkgconfig.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positiveInt)),
		ConnMaxLifetime: pkgconfig.Track(t, "db_conn_max_lifetime", pkgconfig.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, positiveDuration)),
		ConnMaxIdleTime: pkgconfig.Track(t, "db_conn_max_idle_time", pkgconfig.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, positiveDuration)),
	}
}

// sqliteDSN appends the busy timeout and WAL pragmas unless dsn already
// carries query parameters.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") || dsn == ":memory:" {
		return dsn
	}
	return dsn + "?" + sqlitePragmas
}

// Open opens a pool for driver and pings it. SQLite pools hold a single
// connection so writers never contend for the database lock.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open %s: empty data source name", driver)
	}

	cfg := PoolConfigFromEnv(slog.Default())
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
		cfg.MaxOpenConns, cfg.MaxIdleConns = 1, 1
	default:
		return nil, fmt.Errorf("open: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	slog.Info("status database opened",
		slog.String("driver", driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime))
	return db, nil
}
