package inventory_repo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/inventory"
)

func TestBatchRepo_ForUpdateQuery(t *testing.T) {
	repo := NewBatchRepo(nil)

	sql, args, err := repo.forUpdateQuery(id.New(), id.New()).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM inv_batches WHERE product_id = $1 AND warehouse_id = $2 ORDER BY received_at, id FOR UPDATE")
	assert.Len(t, args, 2)
}

func TestBatchRepo_UpdateQuery(t *testing.T) {
	repo := NewBatchRepo(nil)

	sql, args, err := repo.updateQuery(id.New(), 10, 7).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE inv_batches SET quantity = $1, version = version + 1, updated_at = NOW() WHERE id = $2 AND quantity = $3",
		sql)
	require.Len(t, args, 3)
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, int64(10), args[2])
}

func TestBatchRepo_ListQuery(t *testing.T) {
	repo := NewBatchRepo(nil)
	warehouseID := id.New()

	tests := []struct {
		name    string
		filter  inventory.BatchFilter
		want    string
		notWant string
	}{
		{
			name:   "non-empty across warehouses",
			filter: inventory.BatchFilter{ProductID: id.New()},
			want:   "WHERE product_id = $1 AND quantity > $2 ORDER BY received_at, id",
		},
		{
			name:    "one warehouse with empty batches",
			filter:  inventory.BatchFilter{ProductID: id.New(), WarehouseID: &warehouseID, IncludeEmpty: true},
			want:    "WHERE product_id = $1 AND warehouse_id = $2 ORDER BY received_at, id",
			notWant: "quantity >",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, sql, tt.notWant)
			}
		})
	}
}

func TestBatchRepo_LowStockQuery(t *testing.T) {
	sql, args, err := NewBatchRepo(nil).lowStockQuery(25).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY product_id, warehouse_id HAVING SUM(quantity) < MAX(reorder_level)")
	assert.Contains(t, sql, "ORDER BY MAX(reorder_level) - SUM(quantity) DESC LIMIT 25")
	assert.Empty(t, args)
}

func TestMovementRepo_HistoryQuery(t *testing.T) {
	repo := NewMovementRepo(nil)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.historyQuery(inventory.HistoryFilter{
		SKU:       "SKU-1",
		Warehouse: "North",
		Type:      inventory.Transfer,
		From:      &from,
		Limit:     10,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM inv_movements WHERE product_sku = $1")
	assert.Contains(t, sql, "(warehouse_name = $2 OR destination_warehouse_name = $3)")
	assert.Contains(t, sql, "movement_type = $4 AND created_at >= $5")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC LIMIT 10")
	assert.Equal(t, []any{"SKU-1", "North", "North", "TRANSFER", from}, args)
}

func TestLineRows(t *testing.T) {
	movementID := id.New()
	rows := lineRows([]inventory.MovementLine{{
		MovementID:     movementID,
		LineNo:         1,
		BatchID:        id.New(),
		BatchNumber:    "LOT-1",
		WarehouseID:    id.New(),
		Direction:      inventory.DirectionOut,
		QuantityBefore: 5,
		QuantityAfter:  2,
		Delta:          -3,
		UnitCost:       decimal.NewFromInt(4),
	}})

	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(lineColumns))
	assert.Equal(t, movementID, rows[0][0])
	assert.Equal(t, "out", rows[0][5])
	assert.Equal(t, int64(-3), rows[0][8])
}

func TestDecodeMovement_RestoresLineMovementID(t *testing.T) {
	record := inventory.MovementRecord{
		ID:              id.New(),
		Type:            inventory.Outbound,
		ProductSKU:      "SKU-1",
		Quantity:        3,
		ReferenceNumber: "OUT-2026-00001",
		Lines: []inventory.MovementLine{
			{LineNo: 1, BatchNumber: "LOT-1", Direction: inventory.DirectionOut, QuantityBefore: 5, QuantityAfter: 2, Delta: -3},
		},
	}
	record.Lines[0].MovementID = record.ID

	payload, err := json.Marshal(&record)
	require.NoError(t, err)

	decoded, err := DecodeMovement(payload)
	require.NoError(t, err)
	assert.Equal(t, record.ID, decoded.ID)
	require.Len(t, decoded.Lines, 1)
	assert.Equal(t, record.ID, decoded.Lines[0].MovementID)

	_, err = DecodeMovement([]byte("{"))
	assert.Error(t, err)
}
