package catalog_repo

import (
	"context"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/infrastructure/storage/postgres"
)

var _ catalog.Repository = (*Repository)(nil)

// Repository implements catalog.Repository over cat_products and cat_warehouses.
type Repository struct {
	products   *ProductRepo
	warehouses *WarehouseRepo
}

// NewRepository creates the catalog repository.
func NewRepository(txManager *postgres.TxManager) *Repository {
	return &Repository{
		products:   NewProductRepo(txManager),
		warehouses: NewWarehouseRepo(txManager),
	}
}

func (r *Repository) ProductByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.products.ByID(ctx, productID)
}

func (r *Repository) ProductBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.products.BySKU(ctx, sku)
}

func (r *Repository) WarehouseByID(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return r.warehouses.ByID(ctx, warehouseID)
}

func (r *Repository) WarehouseByName(ctx context.Context, name string) (*catalog.Warehouse, error) {
	return r.warehouses.ByName(ctx, name)
}

func (r *Repository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return r.products.Insert(ctx, p)
}

func (r *Repository) CreateWarehouse(ctx context.Context, w *catalog.Warehouse) error {
	return r.warehouses.Insert(ctx, w)
}

func (r *Repository) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	return r.products.Find(ctx, filter)
}

func (r *Repository) ListWarehouses(ctx context.Context, filter catalog.ListFilter) ([]catalog.Warehouse, error) {
	return r.warehouses.Find(ctx, filter)
}
