// Package main is the entry point for the smartsupply API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/config"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/cache"
	v1 "smartsupply/internal/infrastructure/http/v1"
	"smartsupply/internal/infrastructure/http/v1/handlers"
	"smartsupply/internal/infrastructure/http/v1/middleware"
	"smartsupply/internal/infrastructure/numerator"
	"smartsupply/internal/infrastructure/storage/postgres"
	"smartsupply/internal/infrastructure/storage/postgres/catalog_repo"
	"smartsupply/internal/infrastructure/storage/postgres/inventory_repo"
	"smartsupply/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load(os.Getenv("SMARTSUPPLY_CONFIG"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting smartsupply server", "env", cfg.App.Env, "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = cfg.App.Name
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout)

	// --- Catalog (optionally behind Redis) ---
	catalogRepo := catalog_repo.NewRepository(txManager)
	var lookup catalog.Lookup = catalogRepo
	healthChecks := map[string]handlers.Pinger{"database": pool}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()

		lookup = cache.NewCatalogCache(catalogRepo, cache.NewRedisStore(client), cfg.Redis.CatalogTTL)
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Infow("catalog cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CatalogTTL)
	}
	codec, err := postgres.NewPayloadCodec(0)
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}
	publisher := postgres.NewOutboxPublisher(txManager, codec)
	catalogService := catalog.NewService(catalogRepo, lookup).
		WithAudit(txManager, catalog_repo.NewAuditOutbox(publisher))

	// --- Inventory ---
	batches := inventory_repo.NewBatchRepo(txManager)
	movements := inventory_repo.NewMovementRepo(txManager)
	outbox := inventory_repo.NewAuditOutbox(publisher)

	engine := inventory.NewEngine(txManager, lookup, batches, movements, outbox, numerator.New(pool))
	queries := inventory.NewQueryService(txManager, lookup, batches, movements)

	// The API only lists issues; sweeps run in the worker.
	reconciler := inventory.NewReconciler(inventory_repo.NewReconciliationRepo(txManager), nil, inventory.ReconcilerConfig{})

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:              log,
		Engine:              engine,
		Queries:             queries,
		Catalog:             catalogService,
		Reconciliation:      reconciler,
		RequireConfirmation: cfg.HTTP.RequireConfirmation,
		AppName:             cfg.App.Name,
		Version:             version,
		HealthChecks:        healthChecks,
		PoolStats:           func() postgres.PoolStats { return postgres.GetPoolStats(pool.Unwrap()) },
	}
	if cfg.HTTP.IdempotencyEnabled {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL)
	}

	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting",
			"port", cfg.App.Port,
			"require_confirmation", cfg.HTTP.RequireConfirmation,
			"idempotency", cfg.HTTP.IdempotencyEnabled,
			"confirm_header", middleware.HeaderConfirmOperation,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	postgres.LogPoolStats(ctx, pool.Unwrap())
	log.Info("server stopped")
}
