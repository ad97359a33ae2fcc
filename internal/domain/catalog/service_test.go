package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/core/apperror"
	appctx "smartsupply/internal/core/context"
	"smartsupply/internal/core/types"
)

func TestService_CreateAndResolve(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	p := NewProduct("  SKU-100 ", "Widget", types.MustMoney("12.50"))
	require.NoError(t, svc.CreateProduct(ctx, p))
	assert.Equal(t, "SKU-100", p.SKU)

	w := NewWarehouse("Central", "north", 1000)
	require.NoError(t, svc.CreateWarehouse(ctx, w))

	bySKU, err := svc.GetProduct(ctx, "SKU-100")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	byID, err := svc.GetProduct(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "SKU-100", byID.SKU)

	wh, err := svc.GetWarehouse(ctx, "Central")
	require.NoError(t, err)
	assert.Equal(t, w.ID, wh.ID)

	_, err = svc.GetWarehouse(ctx, "Nowhere")
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_CreateProduct_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	tests := []struct {
		name    string
		product *Product
		field   string
	}{
		{"missing sku", NewProduct("", "A", types.Zero()), "sku"},
		{"missing name", NewProduct("S1", "", types.Zero()), "name"},
		{"negative price", NewProduct("S1", "A", types.MustMoney("-1")), "unitPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateProduct(ctx, tt.product)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestService_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	require.NoError(t, svc.CreateProduct(ctx, NewProduct("DUP", "A", types.Zero())))
	err := svc.CreateProduct(ctx, NewProduct("DUP", "B", types.Zero()))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	require.NoError(t, svc.CreateWarehouse(ctx, NewWarehouse("East", "", 0)))
	err = svc.CreateWarehouse(ctx, NewWarehouse("East", "", 0))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestWarehouse_Validate(t *testing.T) {
	lat := 91.0
	w := NewWarehouse("X", "", 10)
	w.Latitude = &lat
	assert.Error(t, w.Validate())

	assert.Error(t, NewWarehouse("Y", "", -1).Validate())
	assert.NoError(t, NewWarehouse("Z", "", 0).Validate())
}

func TestService_ListPaging(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)
	for _, sku := range []string{"C", "A", "B"} {
		p := NewProduct(sku, "item "+sku, types.Zero())
		p.Category = "tools"
		require.NoError(t, svc.CreateProduct(ctx, p))
	}

	items, err := svc.ListProducts(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].SKU)
	assert.Equal(t, "B", items[1].SKU)

	items, err = svc.ListProducts(ctx, ListFilter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "C", items[0].SKU)

	items, err = svc.ListProducts(ctx, ListFilter{Category: "food"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type recordingTx struct {
	calls int
}

func (m *recordingTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	events []*Event
	err    error
}

func (p *recordingPublisher) PublishCatalogEvent(_ context.Context, event *Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestService_PublishesCatalogEvents(t *testing.T) {
	ctx := appctx.WithCorrelationID(context.Background(), "corr-42")
	txm := &recordingTx{}
	pub := &recordingPublisher{}
	svc := NewService(NewMemoryRepository(), nil).WithAudit(txm, pub)

	p := NewProduct("SKU-1", "Widget", types.MustMoney("3.50"))
	p.Category = "tools"
	require.NoError(t, svc.CreateProduct(ctx, p))

	w := NewWarehouse("North", "eu-north", 100)
	w.Location = "Hamburg, Hafenstrasse 3"
	require.NoError(t, svc.CreateWarehouse(ctx, w))

	assert.Equal(t, 2, txm.calls)
	require.Len(t, pub.events, 2)

	product := pub.events[0]
	assert.Equal(t, EntityProduct, product.Entity)
	assert.Equal(t, p.ID, product.EntityID)
	assert.Equal(t, ActionCreated, product.Action)
	assert.Equal(t, "SKU-1", product.Key)
	assert.Equal(t, "corr-42", product.CorrelationID)
	assert.Equal(t, "3.5", product.Details["unit_price"])
	assert.Equal(t, "tools", product.Details["category"])

	warehouse := pub.events[1]
	assert.Equal(t, EntityWarehouse, warehouse.Entity)
	assert.Equal(t, "North", warehouse.Key)
	assert.Equal(t, "Hamburg, Hafenstrasse 3", warehouse.Details["location"])
	assert.Equal(t, int64(100), warehouse.Details["capacity"])
}

func TestService_NoEventOnRejectedCreate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(NewMemoryRepository(), nil).WithAudit(&recordingTx{}, pub)

	require.NoError(t, svc.CreateWarehouse(ctx, NewWarehouse("East", "", 0)))
	err := svc.CreateWarehouse(ctx, NewWarehouse("East", "", 0))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	err = svc.CreateProduct(ctx, NewProduct("", "nameless", types.Zero()))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Len(t, pub.events, 1)
}

func TestService_PublishFailureFailsCreate(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("outbox unavailable")}
	svc := NewService(NewMemoryRepository(), nil).WithAudit(&recordingTx{}, pub)

	err := svc.CreateProduct(context.Background(), NewProduct("SKU-2", "Bolt", types.Zero()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish product event")
}

func TestWarehouse_LocationTooLong(t *testing.T) {
	w := NewWarehouse("Far", "", 0)
	w.Location = strings.Repeat("x", maxLocationLength+1)
	err := w.Validate()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "location", appErr.Details["field"])
}
