// Package main seeds a database with demo products, warehouses and opening stock.
// Re-running is safe: existing catalog entries and opening receipts are skipped.
package main

import (
	"context"
	"fmt"
	"os"

	"smartsupply/internal/config"
	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/numerator"
	"smartsupply/internal/infrastructure/storage/postgres"
	"smartsupply/internal/infrastructure/storage/postgres/catalog_repo"
	"smartsupply/internal/infrastructure/storage/postgres/inventory_repo"
	"smartsupply/pkg/logger"
)

type demoProduct struct {
	sku, name, category, price string
}

type demoStock struct {
	sku, warehouse, batch, cost string
	qty, reorder                int64
}

var (
	demoProducts = []demoProduct{
		{"PJ-100", "Pallet jack", "equipment", "349.00"},
		{"SW-220", "Stretch wrap 500mm", "consumables", "18.50"},
		{"LB-040", "Shipping labels 4x6", "consumables", "12.90"},
		{"BX-M", "Carton box M", "packaging", "1.20"},
	}
	demoWarehouses = []struct {
		name, location, region string
		capacity               int64
	}{
		{"Central", "Frankfurt, Hanauer Landstrasse 12", "eu-central", 50000},
		{"North", "Hamburg, Hafenstrasse 3", "eu-north", 20000},
		{"South", "Munich, Lindwurmstrasse 88", "eu-south", 20000},
	}
	demoStocks = []demoStock{
		{"PJ-100", "Central", "PJ-2026-01", "280.00", 12, 4},
		{"SW-220", "Central", "SW-2026-01", "14.00", 400, 100},
		{"SW-220", "North", "SW-2026-02", "14.20", 60, 80},
		{"LB-040", "South", "LB-2026-01", "9.10", 250, 50},
		{"BX-M", "Central", "BX-2026-01", "0.85", 5000, 1000},
		{"BX-M", "North", "BX-2026-02", "0.90", 300, 500},
	}
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
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	codec, err := postgres.NewPayloadCodec(0)
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}
	publisher := postgres.NewOutboxPublisher(txManager, codec)

	repo := catalog_repo.NewRepository(txManager)
	service := catalog.NewService(repo, nil).WithAudit(txManager, catalog_repo.NewAuditOutbox(publisher))

	if err := seedCatalog(ctx, service, log); err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	engine := inventory.NewEngine(
		txManager,
		repo,
		inventory_repo.NewBatchRepo(txManager),
		inventory_repo.NewMovementRepo(txManager),
		inventory_repo.NewAuditOutbox(publisher),
		numerator.New(pool),
	)
	if err := seedStock(ctx, engine, log); err != nil {
		log.Fatalw("failed to seed stock", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedCatalog(ctx context.Context, service *catalog.Service, log *logger.Logger) error {
	for _, p := range demoProducts {
		product := catalog.NewProduct(p.sku, p.name, types.MustMoney(p.price))
		product.Category = p.category
		if err := service.CreateProduct(ctx, product); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				log.Infow("product exists, skipping", "sku", p.sku)
				continue
			}
			return fmt.Errorf("create product %s: %w", p.sku, err)
		}
	}

	for _, w := range demoWarehouses {
		warehouse := catalog.NewWarehouse(w.name, w.region, w.capacity)
		warehouse.Location = w.location
		if err := service.CreateWarehouse(ctx, warehouse); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				log.Infow("warehouse exists, skipping", "name", w.name)
				continue
			}
			return fmt.Errorf("create warehouse %s: %w", w.name, err)
		}
	}
	return nil
}

func seedStock(ctx context.Context, engine *inventory.Engine, log *logger.Logger) error {
	for _, s := range demoStocks {
		cost := types.MustMoney(s.cost)
		reorder := s.reorder
		_, err := engine.Inbound(ctx, inventory.MovementDescriptor{
			Product:         s.sku,
			Warehouse:       s.warehouse,
			Quantity:        s.qty,
			BatchNumber:     s.batch,
			UnitCost:        &cost,
			ReorderLevel:    &reorder,
			ReferenceNumber: "SEED-" + s.batch,
			Notes:           "opening balance",
		})
		if apperror.IsDuplicateReference(err) {
			log.Infow("opening stock exists, skipping", "batch", s.batch)
			continue
		}
		if err != nil {
			return fmt.Errorf("receive %s into %s: %w", s.sku, s.warehouse, err)
		}
	}
	return nil
}
