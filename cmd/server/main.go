package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/notekeeper/notes/api"
	"github.com/notekeeper/notes/api/models"
	"github.com/notekeeper/notes/internal/config"
	"github.com/notekeeper/notes/internal/db"
	"github.com/notekeeper/notes/internal/secrets"
	"github.com/notekeeper/notes/internal/slogging"
	"github.com/notekeeper/notes/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile, generateConfig, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		os.Exit(1)
	}

	if generateConfig {
		if err := config.GenerateExampleConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := slogging.Initialize(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := slogging.Get()
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Server exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Server gracefully stopped")
}

// run wires the stores, telemetry and router, then serves until ctx is done
func run(ctx context.Context, cfg *config.Config) error {
	logger := slogging.Get()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	provider, err := secrets.NewProvider(ctx, &cfg.Secrets)
	if err != nil {
		return fmt.Errorf("failed to create secrets provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	if err := secrets.ResolveConnectionStrings(ctx, provider, cfg); err != nil {
		return err
	}

	logger.Info("Starting %s", api.GetVersionString())
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = api.GetVersion().SemVer()
	}

	telemetryService, err := telemetry.NewService(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := telemetryService.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down telemetry: %v", err)
		}
	}()

	noteMetrics, err := telemetry.NewNoteMetrics(telemetryService.Meter())
	if err != nil {
		return fmt.Errorf("failed to create note metrics: %w", err)
	}

	gormDB, err := db.NewGormDB(gormConfigFor(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = gormDB.Close() }()

	if cfg.Database.AutoMigrate {
		if err := gormDB.AutoMigrate(models.AllModels()...); err != nil {
			return err
		}
	}

	var cache *api.CacheService
	if cfg.Redis.URL != "" {
		redisDB, err := db.NewRedisDB(db.RedisConfig{
			URL:     cfg.Redis.URL,
			Tracing: telemetryService.TracingEnabled(),
		})
		if err != nil {
			return err
		}
		defer func() { _ = redisDB.Close() }()
		cache = api.NewCacheService(redisDB, cfg.Redis.CacheTTL, noteMetrics)
		logger.Info("Note cache enabled with TTL %s", cfg.Redis.CacheTTL)
	} else {
		logger.Info("No redis url configured, note cache disabled")
	}

	store := api.NewInstrumentedNoteStore(
		api.NewGormNoteStore(gormDB.DB(), cache, api.ContentRules{
			MaxLength:     cfg.Validation.MaxContentLength,
			StrictUnicode: cfg.Validation.StrictUnicode,
		}),
		telemetryService.Tracer(),
		noteMetrics,
	)

	middleware, err := telemetryService.GinMiddleware(cfg.Server.SlowRequestThreshold)
	if err != nil {
		return fmt.Errorf("failed to create telemetry middleware: %w", err)
	}

	doc, err := api.GetSwagger()
	if err != nil {
		return err
	}

	opts := []api.ServerOption{
		api.WithTelemetry(middleware...),
		api.WithOpenAPI(doc),
		api.WithSlowRequestThreshold(cfg.Server.SlowRequestThreshold),
	}
	if handler := telemetryService.PrometheusHandler(); handler != nil {
		opts = append(opts, api.WithMetricsHandler(handler))
	}
	router := api.NewServer(store, opts...).Router()

	srv := &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      wrapHandler(router, telemetryService.TracingEnabled()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server running on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// wrapHandler adds transport-level spans around the router. Scrapes of
// /metrics are not traced.
func wrapHandler(router http.Handler, tracing bool) http.Handler {
	if !tracing {
		return router
	}
	return otelhttp.NewHandler(router, "notes-http",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
}

// gormConfigFor maps the database section onto the store connection settings
func gormConfigFor(cfg *config.Config) db.GormConfig {
	dsn := cfg.Database.URL
	if dsn == "" && cfg.Database.Type == config.DatabaseTypeSQLite {
		dsn = cfg.Database.SQLitePath
	}
	return db.GormConfig{
		Type:            db.DatabaseType(cfg.Database.Type),
		DSN:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogSQL:          cfg.Database.LogSQL,
		Tracing:         cfg.Telemetry.TracingEnabled,
	}
}
