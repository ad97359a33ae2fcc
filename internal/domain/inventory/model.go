// Package inventory implements the batch-level stock ledger: FIFO allocation,
// the movement engine, stock queries and the reconciliation sweep.
package inventory

import (
	"regexp"
	"strings"
	"time"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/gate"
)

// MovementType is the kind of stock movement.
type MovementType string

const (
	Inbound  MovementType = "INBOUND"
	Outbound MovementType = "OUTBOUND"
	Transfer MovementType = "TRANSFER"
	Damage   MovementType = "DAMAGE"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case Inbound, Outbound, Transfer, Damage:
		return true
	}
	return false
}

// ReferencePrefix is the prefix of generated reference numbers.
func (t MovementType) ReferencePrefix() string {
	switch t {
	case Inbound:
		return "IN"
	case Outbound:
		return "OUT"
	case Transfer:
		return "TRF"
	case Damage:
		return "DMG"
	}
	return "MOV"
}

// IsDeduction reports whether the movement removes stock from the source warehouse.
func (t MovementType) IsDeduction() bool {
	return t == Outbound || t == Transfer || t == Damage
}

// Batch is a quantity of one product received into one warehouse at one time.
// Quantity never goes below zero; empty batches are kept for audit continuity.
type Batch struct {
	ID           id.ID       `db:"id" json:"id"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	WarehouseID  id.ID       `db:"warehouse_id" json:"warehouseId"`
	BatchNumber  string      `db:"batch_number" json:"batchNumber"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	UnitCost     types.Money `db:"unit_cost" json:"unitCost"`
	ReceivedAt   time.Time   `db:"received_at" json:"receivedAt"`
	ExpiresAt    *time.Time  `db:"expires_at" json:"expiresAt,omitempty"`
	ReorderLevel int64       `db:"reorder_level" json:"reorderLevel"`
	SafetyStock  int64       `db:"safety_stock" json:"safetyStock"`
	Version      int64       `db:"version" json:"version"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// Before reports whether b precedes other in FIFO order: received_at, then id.
func (b Batch) Before(other Batch) bool {
	if !b.ReceivedAt.Equal(other.ReceivedAt) {
		return b.ReceivedAt.Before(other.ReceivedAt)
	}
	return id.Less(b.ID, other.ID)
}

// Direction of a movement line relative to the batch it touches.
type Direction string

const (
	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

// MovementLine is the before/after record of one batch touched by a movement.
// Delta is signed: QuantityAfter - QuantityBefore.
type MovementLine struct {
	MovementID     id.ID       `db:"movement_id" json:"-"`
	LineNo         int         `db:"line_no" json:"lineNo"`
	BatchID        id.ID       `db:"batch_id" json:"batchId"`
	BatchNumber    string      `db:"batch_number" json:"batchNumber"`
	WarehouseID    id.ID       `db:"warehouse_id" json:"warehouseId"`
	Direction      Direction   `db:"direction" json:"direction"`
	QuantityBefore int64       `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int64       `db:"quantity_after" json:"quantityAfter"`
	Delta          int64       `db:"delta" json:"delta"`
	UnitCost       types.Money `db:"unit_cost" json:"unitCost"`
}

// Consistent reports whether the before/after pair matches the delta and direction.
func (l MovementLine) Consistent() bool {
	if l.QuantityAfter != l.QuantityBefore+l.Delta || l.QuantityAfter < 0 {
		return false
	}
	if l.Direction == DirectionOut {
		return l.Delta < 0
	}
	return l.Delta > 0
}

// MovementRecord is the append-only audit entry written once per movement.
type MovementRecord struct {
	ID                       id.ID        `db:"id" json:"id"`
	Type                     MovementType `db:"movement_type" json:"type"`
	ProductID                id.ID        `db:"product_id" json:"productId"`
	ProductSKU               string       `db:"product_sku" json:"productSku"`
	WarehouseID              id.ID        `db:"warehouse_id" json:"warehouseId"`
	WarehouseName            string       `db:"warehouse_name" json:"warehouseName"`
	DestinationWarehouseID   *id.ID       `db:"destination_warehouse_id" json:"destinationWarehouseId,omitempty"`
	DestinationWarehouseName *string      `db:"destination_warehouse_name" json:"destinationWarehouseName,omitempty"`
	Quantity                 int64        `db:"quantity" json:"quantity"`
	UnitPrice                types.Money  `db:"unit_price" json:"unitPrice"`
	TotalValue               types.Money  `db:"total_value" json:"totalValue"`
	LossValue                types.Money  `db:"loss_value" json:"lossValue"`
	ReferenceNumber          string       `db:"reference_number" json:"referenceNumber"`
	CorrelationID            string       `db:"correlation_id" json:"correlationId"`
	DamageReason             *string      `db:"damage_reason" json:"damageReason,omitempty"`
	Notes                    *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt                time.Time    `db:"created_at" json:"createdAt"`

	Lines []MovementLine `db:"-" json:"lines"`
}

// NetDelta is the signed sum of line deltas. Zero for transfers.
func (m *MovementRecord) NetDelta() int64 {
	var sum int64
	for _, l := range m.Lines {
		sum += l.Delta
	}
	return sum
}

// MovementDescriptor is a fully specified movement request.
// Product and warehouses accept either an id or the natural key (SKU, name).
type MovementDescriptor struct {
	Type                 MovementType
	Product              string
	Warehouse            string
	DestinationWarehouse string
	Quantity             int64

	// BatchNumber selects a single batch for deductions, or names the batch an
	// INBOUND creates or increments.
	BatchNumber string
	Reason      string

	// UnitCost applies to INBOUND, UnitPrice to OUTBOUND. Both default to the product price.
	UnitCost  *types.Money
	UnitPrice *types.Money

	ExpiresAt    *time.Time
	ReorderLevel *int64
	SafetyStock  *int64

	ReferenceNumber string
	CorrelationID   string
	Notes           string
}

// generatedReference matches numbers issued by the numerator. Callers may not
// claim them, or a later generated number would collide.
var generatedReference = regexp.MustCompile(`^(IN|OUT|TRF|DMG|MOV)-\d{4}-\d+$`)

const (
	maxReferenceLength   = 64
	maxBatchNumberLength = 128
	maxCorrelationLength = 128
)

// Validate checks the descriptor shape. Catalog references are resolved later.
func (d *MovementDescriptor) Validate() error {
	d.Product = strings.TrimSpace(d.Product)
	d.Warehouse = strings.TrimSpace(d.Warehouse)
	d.DestinationWarehouse = strings.TrimSpace(d.DestinationWarehouse)
	d.BatchNumber = strings.TrimSpace(d.BatchNumber)
	d.Reason = strings.TrimSpace(d.Reason)
	d.ReferenceNumber = strings.TrimSpace(d.ReferenceNumber)
	d.CorrelationID = strings.TrimSpace(d.CorrelationID)

	if !d.Type.Valid() {
		return apperror.NewValidation("unknown movement type").WithDetail("type", string(d.Type))
	}
	if d.Quantity <= 0 {
		return apperror.NewInvalidQuantity(d.Quantity)
	}
	if d.Product == "" {
		return apperror.NewValidation("product is required").WithDetail("field", "product")
	}
	if d.Warehouse == "" {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouse")
	}

	switch d.Type {
	case Transfer:
		if d.DestinationWarehouse == "" {
			return apperror.NewValidation("destination warehouse is required").
				WithDetail("field", "destinationWarehouse")
		}
		if d.DestinationWarehouse == d.Warehouse {
			return apperror.NewValidation("source and destination warehouses must differ").
				WithDetail("field", "destinationWarehouse")
		}
	case Damage:
		if d.Reason == "" {
			return apperror.NewValidation("damage reason is required").WithDetail("field", "reason")
		}
	}
	if d.Type != Transfer && d.DestinationWarehouse != "" {
		return apperror.NewValidation("destination warehouse applies to transfers only").
			WithDetail("field", "destinationWarehouse")
	}

	if d.UnitCost != nil && d.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative").WithDetail("field", "unitCost")
	}
	if d.UnitPrice != nil && d.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").WithDetail("field", "unitPrice")
	}
	if d.ReorderLevel != nil && *d.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level must not be negative").WithDetail("field", "reorderLevel")
	}
	if d.SafetyStock != nil && *d.SafetyStock < 0 {
		return apperror.NewValidation("safety stock must not be negative").WithDetail("field", "safetyStock")
	}
	if len(d.ReferenceNumber) > maxReferenceLength {
		return apperror.NewValidation("reference number is too long").
			WithDetail("field", "referenceNumber").
			WithDetail("max", maxReferenceLength)
	}
	if generatedReference.MatchString(d.ReferenceNumber) {
		return apperror.NewValidation("reference number uses the generated format").
			WithDetail("field", "referenceNumber").
			WithDetail("value", d.ReferenceNumber)
	}
	if len(d.BatchNumber) > maxBatchNumberLength {
		return apperror.NewValidation("batch number is too long").
			WithDetail("field", "batchNumber").
			WithDetail("max", maxBatchNumberLength)
	}
	if len(d.CorrelationID) > maxCorrelationLength {
		return apperror.NewValidation("correlation id is too long").
			WithDetail("field", "correlationId").
			WithDetail("max", maxCorrelationLength)
	}
	return nil
}

// MovementResult is returned by the engine for a committed movement.
type MovementResult struct {
	Movement        *MovementRecord `json:"movement"`
	ReferenceNumber string          `json:"referenceNumber"`
	TotalValue      types.Money     `json:"totalValue"`
	LossValue       types.Money     `json:"lossValue"`
	Operation       string          `json:"operation"`
	Gate            gate.Tier       `json:"gate"`
}

// WarehouseStock is the on-hand breakdown for one warehouse.
type WarehouseStock struct {
	WarehouseID   id.ID   `json:"warehouseId"`
	WarehouseName string  `json:"warehouseName"`
	OnHand        int64   `json:"onHand"`
	ReorderLevel  int64   `json:"reorderLevel"`
	SafetyStock   int64   `json:"safetyStock"`
	Batches       []Batch `json:"batches,omitempty"`
}

// StockLevel aggregates on-hand quantity for a product.
type StockLevel struct {
	ProductID   id.ID            `json:"productId"`
	ProductSKU  string           `json:"productSku"`
	ProductName string           `json:"productName"`
	Total       int64            `json:"total"`
	Warehouses  []WarehouseStock `json:"warehouses"`
}

// PairLevel is the on-hand total of one (product, warehouse) pair with its
// reorder thresholds, the maximum across the pair's batches.
type PairLevel struct {
	ProductID    id.ID `db:"product_id"`
	WarehouseID  id.ID `db:"warehouse_id"`
	OnHand       int64 `db:"on_hand"`
	ReorderLevel int64 `db:"reorder_level"`
	SafetyStock  int64 `db:"safety_stock"`
}

// LowStockItem is a pair whose on-hand quantity is below its reorder level.
type LowStockItem struct {
	ProductID     id.ID  `json:"productId"`
	ProductSKU    string `json:"productSku"`
	ProductName   string `json:"productName"`
	WarehouseID   id.ID  `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	OnHand        int64  `json:"onHand"`
	ReorderLevel  int64  `json:"reorderLevel"`
	SafetyStock   int64  `json:"safetyStock"`
	Shortage      int64  `json:"shortage"`
	BelowSafety   bool   `json:"belowSafety"`
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryFilter selects movement records. Warehouse matches either the source
// or the destination of a movement.
type HistoryFilter struct {
	SKU       string
	Warehouse string
	Type      MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
}

// Normalize applies the default and maximum limit.
func (f HistoryFilter) Normalize() HistoryFilter {
	f.SKU = strings.TrimSpace(f.SKU)
	f.Warehouse = strings.TrimSpace(f.Warehouse)
	if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}
	if f.Limit > MaxHistoryLimit {
		f.Limit = MaxHistoryLimit
	}
	return f
}

// Validate rejects unknown types and inverted ranges.
func (f HistoryFilter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return apperror.NewValidation("unknown movement type").WithDetail("type", string(f.Type))
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return apperror.NewValidation("time range end precedes start").WithDetail("field", "to")
	}
	return nil
}
