package catalog

import (
	"context"
	"fmt"
	"strings"

	"smartsupply/internal/core/id"
	"smartsupply/internal/core/tx"
	"smartsupply/pkg/logger"
)

// ResolveProduct accepts either a product id or a SKU.
func ResolveProduct(ctx context.Context, lookup Lookup, ref string) (*Product, error) {
	ref = strings.TrimSpace(ref)
	if productID, err := id.Parse(ref); err == nil {
		return lookup.ProductByID(ctx, productID)
	}
	return lookup.ProductBySKU(ctx, ref)
}

// ResolveWarehouse accepts either a warehouse id or a name.
func ResolveWarehouse(ctx context.Context, lookup Lookup, ref string) (*Warehouse, error) {
	ref = strings.TrimSpace(ref)
	if warehouseID, err := id.Parse(ref); err == nil {
		return lookup.WarehouseByID(ctx, warehouseID)
	}
	return lookup.WarehouseByName(ctx, ref)
}

// Service exposes catalog creation and listing.
type Service struct {
	repo      Repository
	lookup    Lookup
	txManager tx.Manager
	events    EventPublisher
}

// NewService creates a catalog service. lookup may be a caching decorator over
// repo; when nil, repo is used directly.
func NewService(repo Repository, lookup Lookup) *Service {
	if lookup == nil {
		lookup = repo
	}
	return &Service{repo: repo, lookup: lookup}
}

// WithAudit makes every creation publish a catalog event in the same
// transaction as the insert.
func (s *Service) WithAudit(txManager tx.Manager, events EventPublisher) *Service {
	s.txManager = txManager
	s.events = events
	return s
}

// Lookup returns the lookup used for reference resolution.
func (s *Service) Lookup() Lookup {
	return s.lookup
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := s.atomic(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateProduct(ctx, p); err != nil {
			return err
		}
		return s.publish(ctx, ProductCreated(ctx, p))
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return nil
}

func (s *Service) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}
	err := s.atomic(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateWarehouse(ctx, w); err != nil {
			return err
		}
		return s.publish(ctx, WarehouseCreated(ctx, w))
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "warehouse created", "warehouse_id", w.ID, "name", w.Name)
	return nil
}

func (s *Service) GetProduct(ctx context.Context, ref string) (*Product, error) {
	return ResolveProduct(ctx, s.lookup, ref)
}

func (s *Service) GetWarehouse(ctx context.Context, ref string) (*Warehouse, error) {
	return ResolveWarehouse(ctx, s.lookup, ref)
}

func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.ListProducts(ctx, filter.Normalize())
}

func (s *Service) ListWarehouses(ctx context.Context, filter ListFilter) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx, filter.Normalize())
}

func (s *Service) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.RunInTransaction(ctx, fn)
}

func (s *Service) publish(ctx context.Context, event *Event) error {
	if s.events == nil {
		return nil
	}
	if err := s.events.PublishCatalogEvent(ctx, event); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Entity, err)
	}
	return nil
}
