package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo persists products.
type ProductRepo struct {
	*BaseCatalogRepo[catalog.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[catalog.Product](
			txManager, productTable, "product", "sku", []string{"sku", "name"},
		),
	}
}

func (r *ProductRepo) ByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.GetBy(ctx, "id", productID)
}

func (r *ProductRepo) BySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.GetBy(ctx, "sku", sku)
}

func (r *ProductRepo) Insert(ctx context.Context, p *catalog.Product) error {
	return r.Create(ctx, p, p.SKU)
}

func (r *ProductRepo) query(filter catalog.ListFilter) squirrel.SelectBuilder {
	filter = filter.Normalize()
	eq := squirrel.Eq{}
	if filter.Category != "" {
		eq["category"] = filter.Category
	}
	return r.listQuery(filter.Search, eq, "sku", filter.Limit, filter.Offset)
}

// Find lists products matching filter ordered by SKU.
func (r *ProductRepo) Find(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	return r.List(ctx, r.query(filter))
}
