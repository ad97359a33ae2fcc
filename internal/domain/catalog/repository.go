package catalog

import (
	"context"

	"smartsupply/internal/core/id"
)

// Lookup resolves catalog references. Implementations return apperror NotFound
// for unknown keys.
type Lookup interface {
	ProductByID(ctx context.Context, productID id.ID) (*Product, error)
	ProductBySKU(ctx context.Context, sku string) (*Product, error)
	WarehouseByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	WarehouseByName(ctx context.Context, name string) (*Warehouse, error)
}

// Repository persists catalog records.
type Repository interface {
	Lookup

	// CreateProduct returns apperror Duplicate when the SKU is taken.
	CreateProduct(ctx context.Context, p *Product) error
	// CreateWarehouse returns apperror Duplicate when the name is taken.
	CreateWarehouse(ctx context.Context, w *Warehouse) error

	ListProducts(ctx context.Context, filter ListFilter) ([]Product, error)
	ListWarehouses(ctx context.Context, filter ListFilter) ([]Warehouse, error)
}
