package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "daily-digest/docs" // swagger docs
	"daily-digest/internal/app"
	"daily-digest/internal/config"
	"daily-digest/internal/infra/worker"
	"daily-digest/internal/observability/logging"
	"daily-digest/internal/observability/tracing"
	pkgconfig "daily-digest/internal/pkg/config"

	hhttp "daily-digest/internal/handler/http"
	hcache "daily-digest/internal/handler/http/cache"
	hdigest "daily-digest/internal/handler/http/digest"
	"daily-digest/internal/handler/http/requestid"
	hsrc "daily-digest/internal/handler/http/source"
)

// @title           Daily Digest API
// @version         1.0
// @description     Aggregates daily digests and hot lists from prioritized upstream sources.
// @description     Serves cached digests and exposes source and cache administration.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
func main() {
	logger := initLogger()

	cfg, err := config.LoadAppConfig(logger, pkgconfig.NewConfigMetrics("app"))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	components, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize digest service", slog.Any("error", err))
		os.Exit(1)
	}
	defer components.Close()

	scheduler := initScheduler(logger, components)
	version := getVersion()
	handler := setupServer(logger, components, version)

	runServer(logger, handler, scheduler, version)
}

// initLogger installs the JSON logger as the slog default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// initScheduler creates the cache sweep and warm-up scheduler.
func initScheduler(logger *slog.Logger, c *app.Components) *worker.Scheduler {
	metrics := worker.NewWorkerMetrics()
	cfg, err := worker.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		logger.Error("failed to load scheduler configuration", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler, err := worker.NewScheduler(*cfg, c.Cache, c.Digests, c.Catalog.Names, metrics, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	return scheduler
}

// setupServer registers all routes and wraps them with the middleware chain.
func setupServer(logger *slog.Logger, c *app.Components, version string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:        c.DB,
		Version:   version,
		Sources:   c.Sources,
		Cache:     c.Cache,
		Upstreams: c.Executor,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: c.DB, Sources: c.Sources})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	hdigest.Register(mux, c.Digests, logger)
	hsrc.Register(mux, c.Sources, c.Catalog)
	hcache.Register(mux, c.Cache, c.Catalog)

	// Outermost first: request ID, recovery, logging, body limit, metrics, tracing.
	var handler http.Handler = mux
	handler = tracing.Middleware(handler)
	handler = hhttp.MetricsMiddleware(handler)
	handler = hhttp.LimitRequestBody(1 << 20)(handler) // 1MB limit
	handler = hhttp.Logging(logger)(handler)
	handler = hhttp.Recover(logger)(handler)
	handler = requestid.Middleware(handler)
	return handler
}

// runServer starts the HTTP server and the scheduler and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler, scheduler *worker.Scheduler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := pkgconfig.LoadEnvString("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	scheduler.Start()

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// In-flight fetches see their request context cancelled.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
