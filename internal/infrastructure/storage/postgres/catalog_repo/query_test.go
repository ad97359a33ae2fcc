package catalog_repo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/domain/catalog"
)

func TestProductRepo_ListQuery(t *testing.T) {
	repo := NewProductRepo(nil)

	tests := []struct {
		name     string
		filter   catalog.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "defaults",
			filter:  catalog.ListFilter{},
			wantSQL: "ORDER BY sku LIMIT 50",
		},
		{
			name:     "search and category",
			filter:   catalog.ListFilter{Search: "bolt", Category: "hardware", Limit: 10, Offset: 20},
			wantSQL:  "WHERE (sku ILIKE $1 OR name ILIKE $2) AND category = $3 ORDER BY sku LIMIT 10 OFFSET 20",
			wantArgs: []any{"%bolt%", "%bolt%", "hardware"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.query(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, "FROM cat_products")
			assert.Contains(t, sql, tt.wantSQL)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestWarehouseRepo_ListQuery(t *testing.T) {
	repo := NewWarehouseRepo(nil)

	sql, args, err := repo.query(catalog.ListFilter{Region: "EU", Limit: 1000}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM cat_warehouses WHERE region = $1 ORDER BY name LIMIT 500")
	assert.Equal(t, []any{"EU"}, args)

	sql, args, err = repo.query(catalog.ListFilter{Search: "hamburg"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (name ILIKE $1 OR location ILIKE $2 OR region ILIKE $3)")
	assert.Equal(t, []any{"%hamburg%", "%hamburg%", "%hamburg%"}, args)
}

func TestBaseCatalogRepo_InsertQuery(t *testing.T) {
	repo := NewProductRepo(nil)
	p := catalog.NewProduct("SKU-1", "Bolt", decimal.RequireFromString("1.25"))

	sql, args, err := repo.insertQuery(p)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO cat_products")
	assert.Contains(t, sql, "sku")
	assert.Contains(t, sql, "unit_price")
	assert.Len(t, args, len(repo.selectCols))
	assert.Contains(t, args, "SKU-1")
}
