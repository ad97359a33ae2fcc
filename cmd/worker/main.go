// Package main is the entry point for the smartsupply background worker:
// audit outbox relay, reconciliation sweeps and housekeeping.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smartsupply/internal/config"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/audit"
	"smartsupply/internal/infrastructure/audit/mongo"
	"smartsupply/internal/infrastructure/storage/postgres"
	"smartsupply/internal/infrastructure/storage/postgres/inventory_repo"
	"smartsupply/pkg/logger"
)

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

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting smartsupply worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = cfg.App.Name + "-worker"
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout)

	// --- Audit mirror ---
	var mirror inventory_repo.Mirror = audit.LogMirror{}
	if cfg.Mongo.Enabled {
		client, sink, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			log.Fatalw("failed to connect to mongo", "error", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := sink.EnsureIndexes(ctx); err != nil {
			log.Fatalw("failed to create mirror indexes", "error", err)
		}
		mirror = sink
		log.Infow("audit mirror: mongo", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
	} else {
		log.Info("audit mirror: log")
	}

	codec, err := postgres.NewPayloadCodec(0)
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}
	relay := postgres.NewOutboxRelay(txManager, codec, inventory_repo.NewMirrorHandler(mirror), postgres.RelayConfig{
		BatchSize:  cfg.Worker.OutboxBatchSize,
		MaxRetries: cfg.Worker.OutboxMaxRetries,
	})

	reconciler := inventory.NewReconciler(inventory_repo.NewReconciliationRepo(txManager), mirror, inventory.ReconcilerConfig{
		StaleAfter:       cfg.Worker.StaleOutboxAge,
		MirrorSampleSize: cfg.Worker.MirrorSampleSize,
	})

	worker := NewWorker(relay, reconciler, postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL), Intervals{
		Relay:     cfg.Worker.OutboxPollInterval,
		Reconcile: cfg.Worker.ReconcileInterval,
		Cleanup:   cfg.Worker.CleanupInterval,
	}, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	<-done
	log.Info("worker stopped")
}
