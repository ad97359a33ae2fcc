package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/core/apperror"
)

func TestQueryService_GetStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.north, 5, "A", "")
	f.receive(t, f.north, 2, "B", "")
	f.receive(t, f.south, 4, "A", "")
	_, err := f.engine.Outbound(ctx, MovementDescriptor{Product: f.product.SKU, Warehouse: f.north.Name, Quantity: 5})
	require.NoError(t, err)

	level, err := f.queries.GetStock(ctx, f.product.SKU, "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), level.Total)
	require.Len(t, level.Warehouses, 2)
	assert.Equal(t, "North", level.Warehouses[0].WarehouseName)
	assert.Equal(t, int64(2), level.Warehouses[0].OnHand)
	require.Len(t, level.Warehouses[0].Batches, 1, "exhausted batch hidden")
	assert.Equal(t, "South", level.Warehouses[1].WarehouseName)

	level, err = f.queries.GetStock(ctx, f.product.SKU, "South")
	require.NoError(t, err)
	assert.Equal(t, int64(4), level.Total)
	require.Len(t, level.Warehouses, 1)

	details, err := f.queries.GetInventoryDetails(ctx, f.product.SKU, "North")
	require.NoError(t, err)
	require.Len(t, details.Warehouses, 1)
	assert.Len(t, details.Warehouses[0].Batches, 2)
	assert.Equal(t, "A", details.Warehouses[0].Batches[0].BatchNumber)

	_, err = f.queries.GetStock(ctx, "UNKNOWN", "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestQueryService_GetLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reorder, safety := int64(10), int64(4)

	_, err := f.engine.Inbound(ctx, MovementDescriptor{
		Product: f.product.SKU, Warehouse: f.north.Name, Quantity: 6,
		ReorderLevel: &reorder, SafetyStock: &safety,
	})
	require.NoError(t, err)
	_, err = f.engine.Inbound(ctx, MovementDescriptor{
		Product: f.product.SKU, Warehouse: f.south.Name, Quantity: 30, ReorderLevel: &reorder,
	})
	require.NoError(t, err)

	items, err := f.queries.GetLowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "North", items[0].WarehouseName)
	assert.Equal(t, "SKU-1", items[0].ProductSKU)
	assert.Equal(t, int64(6), items[0].OnHand)
	assert.Equal(t, int64(4), items[0].Shortage)
	assert.False(t, items[0].BelowSafety)

	_, err = f.engine.Outbound(ctx, MovementDescriptor{Product: f.product.SKU, Warehouse: f.north.Name, Quantity: 3})
	require.NoError(t, err)
	items, err = f.queries.GetLowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].BelowSafety)
}

func TestQueryService_GetMovementHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, f.north, 10, "", "")
	_, err := f.engine.Transfer(ctx, MovementDescriptor{
		Product: f.product.SKU, Warehouse: f.north.Name, DestinationWarehouse: f.south.Name, Quantity: 3,
	})
	require.NoError(t, err)
	_, err = f.engine.Outbound(ctx, MovementDescriptor{Product: f.product.SKU, Warehouse: f.north.Name, Quantity: 1})
	require.NoError(t, err)

	all, err := f.queries.GetMovementHistory(ctx, HistoryFilter{SKU: f.product.SKU})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, Outbound, all[0].Type, "newest first")
	assert.Equal(t, Inbound, all[2].Type)
	assert.NotEmpty(t, all[0].Lines)

	south, err := f.queries.GetMovementHistory(ctx, HistoryFilter{Warehouse: f.south.Name})
	require.NoError(t, err)
	require.Len(t, south, 1, "destination matches")
	assert.Equal(t, Transfer, south[0].Type)

	limited, err := f.queries.GetMovementHistory(ctx, HistoryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	typed, err := f.queries.GetMovementHistory(ctx, HistoryFilter{Type: Inbound})
	require.NoError(t, err)
	assert.Len(t, typed, 1)

	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	none, err := f.queries.GetMovementHistory(ctx, HistoryFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.queries.GetMovementHistory(ctx, HistoryFilter{From: &future, To: &past})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.queries.GetMovementHistory(ctx, HistoryFilter{Warehouse: "Atlantis"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestHistoryFilter_Normalize(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, HistoryFilter{}.Normalize().Limit)
	assert.Equal(t, MaxHistoryLimit, HistoryFilter{Limit: 10_000}.Normalize().Limit)
	assert.Equal(t, 7, HistoryFilter{Limit: 7}.Normalize().Limit)
}
