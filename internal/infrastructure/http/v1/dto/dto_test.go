package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/inventory"
)

func TestMovementRequest_ToDescriptor(t *testing.T) {
	price := types.MustMoney("12.50")
	req := MovementRequest{
		Product:   "SKU-1",
		Warehouse: "North",
		Quantity:  types.Quantity(3),
		UnitPrice: &price,
		Notes:     "rush",
	}

	d := req.ToDescriptor(inventory.Outbound)
	assert.Equal(t, inventory.Outbound, d.Type)
	assert.Equal(t, "SKU-1", d.Product)
	assert.Equal(t, int64(3), d.Quantity)
	assert.True(t, d.UnitPrice.Equal(price))
	assert.Equal(t, "rush", d.Notes)
}

func TestHistoryQuery_ToFilter(t *testing.T) {
	q := HistoryQuery{SKU: "SKU-1", Type: "DAMAGE", From: "2026-03-01T00:00:00Z", Limit: 5}
	f, err := q.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, f.From)
	assert.True(t, f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, f.To)
	assert.Equal(t, inventory.Damage, f.Type)

	_, err = (&HistoryQuery{To: "yesterday"}).ToFilter()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestNewListResponse_EmptyIsArray(t *testing.T) {
	resp := NewListResponse[int](nil)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.Count)
}

func TestCreateWarehouseRequest_ToWarehouse(t *testing.T) {
	lat := 53.55
	req := CreateWarehouseRequest{Name: " North ", Location: " Hamburg, Hafenstrasse 3 ", Region: "eu-north", Capacity: 100, Latitude: &lat}

	w := req.ToWarehouse()
	assert.Equal(t, "North", w.Name)
	assert.Equal(t, "Hamburg, Hafenstrasse 3", w.Location)
	assert.Equal(t, int64(100), w.Capacity)
	assert.Equal(t, &lat, w.Latitude)
}
