package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/activault/internal/activation/http"
	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/internal/activation/store/drivers/sqlite"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/ratelimit"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the activation service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	limiter ratelimit.RateLimiter

	// Services
	codeService         *service.CodeService
	retentionService    *service.RetentionService
	apiKeyService       *service.APIKeyService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "activault",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initLimiter()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("activation service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down activation service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("activation service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initLimiter picks the guard backend. The in-process limiter throttles
// per instance only; pointing ACT_REDIS_ADDR at a shared redis gives
// fleet-wide counters.
func (app *Application) initLimiter() {
	if app.cfg.RedisAddr == "" {
		app.limiter = ratelimit.NewMemory()
		app.logger.Info("rate guard using in-process limiter")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	app.limiter = ratelimit.NewRedis(client)
	app.logger.Info("rate guard using redis limiter", "addr", app.cfg.RedisAddr)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.retentionService = &service.RetentionService{Store: app.db}
	app.apiKeyService = &service.APIKeyService{Store: app.db}

	app.codeService = &service.CodeService{
		Store:            app.db,
		Retention:        app.retentionService,
		StaleUnusedAfter: app.cfg.StaleUnusedAfter,
		DefaultDays:      app.cfg.DefaultExpiryDays,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.retentionService,
		app.apiKeyService,
		app.logger,
		app.cfg.HousekeepingInterval,
		service.RetentionPolicy{
			Name:             "stale-unused",
			UnusedOnly:       true,
			CreatedOlderThan: app.cfg.StaleUnusedAfter,
		},
		service.RetentionPolicy{
			Name:             "expired-unused",
			UnusedOnly:       true,
			ExpiredOlderThan: app.cfg.ExpiredUnusedAfter,
		},
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	if app.cfg.JWTSecret == "" {
		app.logger.Warn("ACT_JWT_SECRET not set, bearer authentication disabled")
	}

	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.limiter,
		httpx.AuthnConfig{
			JWTSecret: []byte(app.cfg.JWTSecret),
			APIKeys:   app.apiKeyService,
		},
		ratelimit.Policy{
			Name:        "coarse",
			Window:      app.cfg.GuardCoarseWindow,
			MaxRequests: app.cfg.GuardCoarseMax,
			BlockFor:    app.cfg.GuardCoarseBlock,
		},
		ratelimit.Policy{
			Name:        "fine",
			Window:      app.cfg.GuardFineWindow,
			MaxRequests: app.cfg.GuardFineMax,
		},
		app.logger,
	)

	// Bound storage work per request so a wedged database degrades to 503s
	// instead of piling up connections.
	router.Use(httpx.WithTimeout(app.cfg.StoreTimeout))

	// Wire services to router
	router.CodeService = app.codeService
	router.RetentionService = app.retentionService
	router.APIKeyService = app.apiKeyService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
