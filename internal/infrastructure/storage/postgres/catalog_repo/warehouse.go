package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/infrastructure/storage/postgres"
)

const warehouseTable = "cat_warehouses"

// WarehouseRepo persists warehouses.
type WarehouseRepo struct {
	*BaseCatalogRepo[catalog.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[catalog.Warehouse](
			txManager, warehouseTable, "warehouse", "name", []string{"name", "location", "region"},
		),
	}
}

func (r *WarehouseRepo) ByID(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return r.GetBy(ctx, "id", warehouseID)
}

func (r *WarehouseRepo) ByName(ctx context.Context, name string) (*catalog.Warehouse, error) {
	return r.GetBy(ctx, "name", name)
}

func (r *WarehouseRepo) Insert(ctx context.Context, w *catalog.Warehouse) error {
	return r.Create(ctx, w, w.Name)
}

func (r *WarehouseRepo) query(filter catalog.ListFilter) squirrel.SelectBuilder {
	filter = filter.Normalize()
	eq := squirrel.Eq{}
	if filter.Region != "" {
		eq["region"] = filter.Region
	}
	return r.listQuery(filter.Search, eq, "name", filter.Limit, filter.Offset)
}

// Find lists warehouses matching filter ordered by name.
func (r *WarehouseRepo) Find(ctx context.Context, filter catalog.ListFilter) ([]catalog.Warehouse, error) {
	return r.List(ctx, r.query(filter))
}
