// Package app assembles the digest components from the environment. It is
// shared by the API server and the digestctl command.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"daily-digest/internal/config"
	fileRepo "daily-digest/internal/infra/adapter/persistence/file"
	pgRepo "daily-digest/internal/infra/adapter/persistence/postgres"
	sqliteRepo "daily-digest/internal/infra/adapter/persistence/sqlite"
	"daily-digest/internal/infra/cache"
	"daily-digest/internal/infra/db"
	"daily-digest/internal/infra/fetcher"
	"daily-digest/internal/infra/parser"
	"daily-digest/internal/repository"
	fetchUC "daily-digest/internal/usecase/fetch"
	srcUC "daily-digest/internal/usecase/source"
)

// Components holds the wired services. Close releases the status store.
type Components struct {
	Config   *config.AppConfig
	Fetcher  fetcher.Config
	Catalog  *config.Catalog
	Sources  *srcUC.Manager
	Parsers  *parser.Registry
	Executor *fetcher.Executor
	Cache    *cache.Cache
	Digests  *fetchUC.Service

	// DB is nil for the file store.
	DB *sql.DB
}

// Build loads the settings, the catalog and the persisted source state and
// wires the orchestrator. A status store that cannot be read is logged and
// the seeded source state is used.
func Build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Components, error) {
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load fetcher configuration: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	c := &Components{Config: cfg, Fetcher: fetchCfg, Catalog: catalog}

	repo, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	c.Sources = srcUC.NewManager(fetchCfg.MaxRetries,
		srcUC.WithRepository(repo),
		srcUC.WithLogger(logger))
	for _, ct := range catalog.ContentTypes {
		sources, err := ct.EntitySources()
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("content type %q: %w", ct.Name, err)
		}
		for _, src := range sources {
			if !c.Sources.Register(ct.Name, src) {
				logger.Warn("duplicate source ignored",
					slog.String("content_type", ct.Name),
					slog.String("url", src.URL))
			}
		}
	}
	if err := c.Sources.Load(ctx); err != nil {
		logger.Warn("failed to load source state, using catalog defaults",
			slog.String("store", cfg.StatusStore),
			slog.Any("error", err))
	}

	c.Parsers = parser.NewRegistry(parser.WithLogger(logger))
	c.Executor = fetcher.NewExecutor(fetchCfg, fetcher.WithLogger(logger))
	c.Cache = cache.New(cache.Config{DefaultTTL: cfg.CacheTTL, Logger: logger})
	c.Digests = fetchUC.NewService(c.Sources, c.Executor, c.Parsers, c.Cache, catalog,
		fetchUC.Config{
			MaxRetries:    fetchCfg.MaxRetries,
			Timeout:       fetchCfg.Timeout,
			AutoFailover:  cfg.AutoFailover,
			Deadline:      cfg.FetchDeadline,
			DefaultFormat: cfg.DefaultFormat,
			CacheTTL:      cfg.CacheTTL,
		},
		fetchUC.WithLogger(logger))

	logger.Info("digest service configured",
		slog.Int("content_types", len(catalog.ContentTypes)),
		slog.String("status_store", cfg.StatusStore),
		slog.Int("max_retries", fetchCfg.MaxRetries),
		slog.Duration("fetch_timeout", fetchCfg.Timeout),
		slog.Bool("auto_failover", cfg.AutoFailover),
		slog.Duration("cache_ttl", cfg.CacheTTL))
	return c, nil
}

// Close closes the database of a SQL status store.
func (c *Components) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			slog.Default().Error("failed to close database", slog.Any("error", err))
		}
		c.DB = nil
	}
}

// openStore opens the configured status store, running the schema
// migration for the SQL backends.
func (c *Components) openStore(ctx context.Context) (repository.SourceStatusRepository, error) {
	var driver, dsn string
	switch c.Config.StatusStore {
	case config.StoreFile:
		return fileRepo.NewSourceStatusRepo(c.Config.StatusFile), nil
	case config.StoreSQLite:
		driver, dsn = db.DriverSQLite, c.Config.SQLitePath
	case config.StorePostgres:
		driver, dsn = db.DriverPostgres, c.Config.DatabaseURL
	default:
		return nil, fmt.Errorf("unknown status store %q", c.Config.StatusStore)
	}

	database, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate status store: %w", err)
	}
	c.DB = database

	if driver == db.DriverSQLite {
		return sqliteRepo.NewSourceStatusRepo(database), nil
	}
	return pgRepo.NewSourceStatusRepo(database), nil
}
