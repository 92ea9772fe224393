package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	deposithandlers "github.com/grandbet/deposit-service/internal/api/handlers/deposit"
	"github.com/grandbet/deposit-service/internal/api/routes"
	"github.com/grandbet/deposit-service/internal/domain/fieldrules"
	"github.com/grandbet/deposit-service/internal/domain/services/catalog"
	"github.com/grandbet/deposit-service/internal/domain/services/wizard"
	"github.com/grandbet/deposit-service/internal/infrastructure/cache"
	"github.com/grandbet/deposit-service/internal/infrastructure/config"
	"github.com/grandbet/deposit-service/internal/infrastructure/database"
	"github.com/grandbet/deposit-service/internal/infrastructure/gateway"
	"github.com/grandbet/deposit-service/internal/infrastructure/repositories"
	"github.com/grandbet/deposit-service/internal/workers/reconciliation"
	"github.com/grandbet/deposit-service/pkg/logger"
	"github.com/grandbet/deposit-service/pkg/metrics"
)

// Application represents the main application
type Application struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *sqlx.DB
	rdb    *redis.Client
	server *http.Server

	reconciler *reconciliation.Worker
}

// NewApplication creates a new application instance
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes the application
func (app *Application) Initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.cfg = cfg

	log := logger.New(cfg.LogLevel, cfg.Environment)
	app.log = log

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db

	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return nil
}

// initializeServer wires services, handlers and the HTTP server
func (app *Application) initializeServer() error {
	if app.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL: app.cfg.Gateway.BaseURL,
		APIKey:  app.cfg.Gateway.APIKey,
	}, app.log.Zap())

	methodRepo := repositories.NewMethodRepository(app.db)
	depositRepo := repositories.NewDepositRepository(app.db)
	stash := cache.NewSubmissionStash(app.rdb)

	catalogSvc := catalog.NewService(methodRepo, catalog.NewAdapter(nil), app.log.Zap())

	composer := wizard.NewComposer(
		gatewayClient,
		stash,
		fieldrules.NewGenerator(),
		wizard.ComposerConfig{
			ReturnURL:     app.cfg.Wizard.ReturnURL,
			CallbackURL:   app.cfg.Wizard.CallbackURL,
			SiteReference: app.cfg.Wizard.SiteReference,
		},
		app.log.Zap(),
	)

	bus := wizard.NewMessageBus(app.cfg.Wizard.AllowedOrigins, app.log.Zap())
	manager := wizard.NewManager(
		catalogSvc,
		composer,
		depositRepo,
		bus,
		nil,
		wizard.SessionConfig{},
		app.log.Zap(),
	)

	app.reconciler = reconciliation.NewWorker(
		depositRepo,
		gatewayClient,
		reconciliation.DefaultConfig(),
		app.log,
	)

	handlers := deposithandlers.NewHandlers(
		manager,
		catalogSvc,
		depositRepo,
		app.cfg.Gateway.CallbackSecret,
		app.log.Zap(),
	)

	router := routes.SetupRoutes(handlers, routes.Config{JWTSecret: app.cfg.Auth.JWTSecret})

	app.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(app.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return nil
}

// Start starts the application
func (app *Application) Start() error {
	go func() {
		app.log.Info("Starting server",
			"port", app.cfg.Server.Port,
			"environment", app.cfg.Environment,
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.Fatal("Failed to start server", "error", err)
		}
	}()

	if err := app.reconciler.Start(); err != nil {
		return fmt.Errorf("failed to start reconciliation worker: %w", err)
	}

	go app.startMetricsCollection()

	return nil
}

// startMetricsCollection starts background metrics collection
func (app *Application) startMetricsCollection() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := app.db.Stats()
		metrics.DatabaseConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
		metrics.DatabaseConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
		metrics.DatabaseConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.log.Info("Shutting down server...")

	if app.reconciler != nil {
		if err := app.reconciler.Stop(); err != nil {
			app.log.Warn("Error stopping reconciliation worker", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.log.Fatal("Server forced to shutdown", "error", err)
	}

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.log.Warn("Error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.log.Warn("Error closing database", "error", err)
		}
	}

	app.log.Info("Server exited gracefully")
	return nil
}

// WaitForShutdown waits for interrupt signal
func (app *Application) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
