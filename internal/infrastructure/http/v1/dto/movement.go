package dto

import (
	"time"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/inventory"
)

// MovementRequest is the body of every POST /movements/* endpoint. The movement
// type comes from the route.
type MovementRequest struct {
	Product              string         `json:"product"`
	Warehouse            string         `json:"warehouse"`
	DestinationWarehouse string         `json:"destinationWarehouse"`
	Quantity             types.Quantity `json:"quantity"`
	BatchNumber          string         `json:"batchNumber"`
	Reason               string         `json:"reason"`
	UnitCost             *types.Money   `json:"unitCost"`
	UnitPrice            *types.Money   `json:"unitPrice"`
	ExpiresAt            *time.Time     `json:"expiresAt"`
	ReorderLevel         *int64         `json:"reorderLevel"`
	SafetyStock          *int64         `json:"safetyStock"`
	ReferenceNumber      string         `json:"referenceNumber"`
	CorrelationID        string         `json:"correlationId"`
	Notes                string         `json:"notes"`
}

// ToDescriptor converts the request to a descriptor of type t.
func (r *MovementRequest) ToDescriptor(t inventory.MovementType) inventory.MovementDescriptor {
	return inventory.MovementDescriptor{
		Type:                 t,
		Product:              r.Product,
		Warehouse:            r.Warehouse,
		DestinationWarehouse: r.DestinationWarehouse,
		Quantity:             r.Quantity.Int64(),
		BatchNumber:          r.BatchNumber,
		Reason:               r.Reason,
		UnitCost:             r.UnitCost,
		UnitPrice:            r.UnitPrice,
		ExpiresAt:            r.ExpiresAt,
		ReorderLevel:         r.ReorderLevel,
		SafetyStock:          r.SafetyStock,
		ReferenceNumber:      r.ReferenceNumber,
		CorrelationID:        r.CorrelationID,
		Notes:                r.Notes,
	}
}

// HistoryQuery holds GET /movements parameters. Times are RFC 3339.
type HistoryQuery struct {
	SKU       string `form:"sku"`
	Warehouse string `form:"warehouse"`
	Type      string `form:"type"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit"`
}

// ToFilter parses the time bounds.
func (q *HistoryQuery) ToFilter() (inventory.HistoryFilter, error) {
	f := inventory.HistoryFilter{
		SKU:       q.SKU,
		Warehouse: q.Warehouse,
		Type:      inventory.MovementType(q.Type),
		Limit:     q.Limit,
	}
	var err error
	if f.From, err = parseTime("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperror.NewValidation("invalid time, expected RFC 3339").
			WithDetail("field", field).
			WithDetail("value", v)
	}
	return &t, nil
}

// StockQuery holds GET /stock parameters.
type StockQuery struct {
	Product   string `form:"product" binding:"required"`
	Warehouse string `form:"warehouse"`
}

// LimitQuery holds a bare limit parameter.
type LimitQuery struct {
	Limit int `form:"limit"`
}
