package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"smartsupply/internal/core/apperror"
	appctx "smartsupply/internal/core/context"
	"smartsupply/internal/core/id"
	"smartsupply/internal/core/numerator"
	"smartsupply/internal/core/tx"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/gate"
	"smartsupply/pkg/logger"
)

var tracer = otel.Tracer("smartsupply/inventory")

// Engine turns movement descriptors into batch mutations, an audit record and
// an audit intent, committed as one transaction.
type Engine struct {
	txManager tx.Manager
	catalog   catalog.Lookup
	batches   BatchRepository
	movements MovementRepository
	outbox    AuditOutbox
	numerator numerator.Generator
	numOpts   *numerator.Options
	now       func() time.Time
}

// NewEngine creates a movement engine.
func NewEngine(
	txManager tx.Manager,
	lookup catalog.Lookup,
	batches BatchRepository,
	movements MovementRepository,
	outbox AuditOutbox,
	gen numerator.Generator,
) *Engine {
	return &Engine{
		txManager: txManager,
		catalog:   lookup,
		batches:   batches,
		movements: movements,
		outbox:    outbox,
		numerator: gen,
		numOpts:   numerator.DefaultOptions(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNumeratorOptions switches the reference number strategy.
func (e *Engine) WithNumeratorOptions(opts *numerator.Options) *Engine {
	e.numOpts = opts
	return e
}

func (e *Engine) Inbound(ctx context.Context, d MovementDescriptor) (*MovementResult, error) {
	d.Type = Inbound
	return e.Execute(ctx, d)
}

func (e *Engine) Outbound(ctx context.Context, d MovementDescriptor) (*MovementResult, error) {
	d.Type = Outbound
	return e.Execute(ctx, d)
}

func (e *Engine) Transfer(ctx context.Context, d MovementDescriptor) (*MovementResult, error) {
	d.Type = Transfer
	return e.Execute(ctx, d)
}

func (e *Engine) Damage(ctx context.Context, d MovementDescriptor) (*MovementResult, error) {
	d.Type = Damage
	return e.Execute(ctx, d)
}

// Execute validates, plans and commits a movement. Every failure is detected
// before the first batch is touched, and any later error rolls back the whole unit.
func (e *Engine) Execute(ctx context.Context, d MovementDescriptor) (*MovementResult, error) {
	ctx, span := tracer.Start(ctx, "movement."+strings.ToLower(string(d.Type)),
		trace.WithAttributes(
			attribute.String("movement.type", string(d.Type)),
			attribute.Int64("movement.quantity", d.Quantity),
		),
	)
	defer span.End()

	result, err := e.execute(ctx, &d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("movement.id", result.Movement.ID.String()),
		attribute.String("movement.reference", result.ReferenceNumber),
		attribute.Int("movement.lines", len(result.Movement.Lines)),
	)
	return result, nil
}

func (e *Engine) execute(ctx context.Context, d *MovementDescriptor) (*MovementResult, error) {
	if d.CorrelationID == "" {
		d.CorrelationID = appctx.GetCorrelationID(ctx)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	product, err := catalog.ResolveProduct(ctx, e.catalog, d.Product)
	if err != nil {
		return nil, err
	}
	source, err := catalog.ResolveWarehouse(ctx, e.catalog, d.Warehouse)
	if err != nil {
		return nil, err
	}
	var dest *catalog.Warehouse
	if d.Type == Transfer {
		dest, err = catalog.ResolveWarehouse(ctx, e.catalog, d.DestinationWarehouse)
		if err != nil {
			return nil, err
		}
		if dest.ID == source.ID {
			return nil, apperror.NewValidation("source and destination warehouses must differ").
				WithDetail("field", "destinationWarehouse")
		}
	}

	reference := d.ReferenceNumber
	if reference == "" {
		reference, err = e.numerator.GetNextNumber(ctx, numerator.DefaultConfig(d.Type.ReferencePrefix()), e.numOpts, e.now())
		if err != nil {
			return nil, fmt.Errorf("generate reference number: %w", err)
		}
	}

	record := e.newRecord(ctx, d, product, source, dest, reference)
	warehouses := []id.ID{source.ID}
	if dest != nil {
		warehouses = append(warehouses, dest.ID)
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := e.movements.ReferenceExists(ctx, reference)
		if err != nil {
			return fmt.Errorf("check reference: %w", err)
		}
		if exists {
			return apperror.NewDuplicateReference(reference)
		}

		if err := e.lockPairs(ctx, product.ID, warehouses); err != nil {
			return err
		}

		var lines []MovementLine
		switch d.Type {
		case Inbound:
			lines, err = e.receive(ctx, product, source, d, reference, record.CreatedAt)
		case Outbound, Damage:
			lines, err = e.deduct(ctx, product, source, d)
		case Transfer:
			lines, err = e.transfer(ctx, product, source, dest, d, record.CreatedAt)
		}
		if err != nil {
			return err
		}

		for i := range lines {
			lines[i].MovementID = record.ID
			lines[i].LineNo = i + 1
		}
		record.Lines = lines
		valuate(record, product, d)

		if err := e.movements.Append(ctx, record); err != nil {
			return err
		}
		if err := e.outbox.RecordIntent(ctx, record); err != nil {
			return fmt.Errorf("record audit intent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	op, tier := gate.ForMovement(string(record.Type))
	logger.Info(ctx, "movement recorded",
		"movement_id", record.ID,
		"type", record.Type,
		"reference", record.ReferenceNumber,
		"product_sku", record.ProductSKU,
		"warehouse", record.WarehouseName,
		"quantity", record.Quantity,
		"lines", len(record.Lines),
		"total_value", record.TotalValue.String(),
	)

	return &MovementResult{
		Movement:        record,
		ReferenceNumber: record.ReferenceNumber,
		TotalValue:      record.TotalValue,
		LossValue:       record.LossValue,
		Operation:       op,
		Gate:            tier,
	}, nil
}

func (e *Engine) newRecord(
	ctx context.Context,
	d *MovementDescriptor,
	product *catalog.Product,
	source, dest *catalog.Warehouse,
	reference string,
) *MovementRecord {
	correlationID := d.CorrelationID
	if correlationID == "" {
		correlationID = appctx.GetCorrelationID(ctx)
	}
	if correlationID == "" {
		correlationID = id.New().String()
	}

	record := &MovementRecord{
		ID:              id.New(),
		Type:            d.Type,
		ProductID:       product.ID,
		ProductSKU:      product.SKU,
		WarehouseID:     source.ID,
		WarehouseName:   source.Name,
		Quantity:        d.Quantity,
		UnitPrice:       types.Zero(),
		TotalValue:      types.Zero(),
		LossValue:       types.Zero(),
		ReferenceNumber: reference,
		CorrelationID:   correlationID,
		CreatedAt:       e.now(),
	}
	if dest != nil {
		destID, destName := dest.ID, dest.Name
		record.DestinationWarehouseID = &destID
		record.DestinationWarehouseName = &destName
	}
	if d.Type == Damage {
		reason := d.Reason
		record.DamageReason = &reason
	}
	if notes := strings.TrimSpace(d.Notes); notes != "" {
		record.Notes = &notes
	}
	return record
}

// lockPairs takes the pair locks in ascending warehouse id order so that two
// transfers in opposite directions cannot deadlock.
func (e *Engine) lockPairs(ctx context.Context, productID id.ID, warehouseIDs []id.ID) error {
	ordered := slices.Clone(warehouseIDs)
	slices.SortFunc(ordered, id.Compare)
	ordered = slices.Compact(ordered)
	for _, warehouseID := range ordered {
		if err := e.batches.LockPair(ctx, productID, warehouseID); err != nil {
			return fmt.Errorf("lock pair %s/%s: %w", productID, warehouseID, err)
		}
	}
	return nil
}

// receive creates the named batch or increments it when it already exists.
func (e *Engine) receive(
	ctx context.Context,
	product *catalog.Product,
	warehouse *catalog.Warehouse,
	d *MovementDescriptor,
	reference string,
	now time.Time,
) ([]MovementLine, error) {
	batches, err := e.batches.ListForUpdate(ctx, product.ID, warehouse.ID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	batchNumber := d.BatchNumber
	if batchNumber == "" {
		batchNumber = "LOT-" + reference
	}

	if existing := findBatch(batches, batchNumber); existing != nil {
		line, err := e.increment(ctx, existing, d.Quantity)
		if err != nil {
			return nil, err
		}
		return []MovementLine{line}, nil
	}

	cost := product.UnitPrice
	if d.UnitCost != nil {
		cost = *d.UnitCost
	}
	batch := &Batch{
		ID:          id.New(),
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		BatchNumber: batchNumber,
		Quantity:    d.Quantity,
		UnitCost:    cost,
		ReceivedAt:  now,
		ExpiresAt:   d.ExpiresAt,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if latest := latestBatch(batches); latest != nil {
		batch.ReorderLevel, batch.SafetyStock = latest.ReorderLevel, latest.SafetyStock
	}
	if d.ReorderLevel != nil {
		batch.ReorderLevel = *d.ReorderLevel
	}
	if d.SafetyStock != nil {
		batch.SafetyStock = *d.SafetyStock
	}

	if err := e.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return []MovementLine{newBatchLine(batch)}, nil
}

// deduct removes stock for OUTBOUND and DAMAGE.
func (e *Engine) deduct(
	ctx context.Context,
	product *catalog.Product,
	warehouse *catalog.Warehouse,
	d *MovementDescriptor,
) ([]MovementLine, error) {
	plan, err := e.plan(ctx, product, warehouse, d)
	if err != nil {
		return nil, err
	}
	return e.applyPlan(ctx, plan)
}

// transfer deducts at the source and books each split into the destination batch
// carrying the same batch number, creating it with the source's cost and receipt
// time when absent.
func (e *Engine) transfer(
	ctx context.Context,
	product *catalog.Product,
	source, dest *catalog.Warehouse,
	d *MovementDescriptor,
	now time.Time,
) ([]MovementLine, error) {
	plan, err := e.plan(ctx, product, source, d)
	if err != nil {
		return nil, err
	}
	destBatches, err := e.batches.ListForUpdate(ctx, product.ID, dest.ID)
	if err != nil {
		return nil, fmt.Errorf("list destination batches: %w", err)
	}
	latest := latestBatch(destBatches)

	lines, err := e.applyPlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	for _, a := range plan.Allocations {
		if existing := findBatch(destBatches, a.Batch.BatchNumber); existing != nil {
			line, err := e.increment(ctx, existing, a.Take)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
			continue
		}

		batch := &Batch{
			ID:           id.New(),
			ProductID:    product.ID,
			WarehouseID:  dest.ID,
			BatchNumber:  a.Batch.BatchNumber,
			Quantity:     a.Take,
			UnitCost:     a.Batch.UnitCost,
			ReceivedAt:   a.Batch.ReceivedAt,
			ExpiresAt:    a.Batch.ExpiresAt,
			ReorderLevel: a.Batch.ReorderLevel,
			SafetyStock:  a.Batch.SafetyStock,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if latest != nil {
			batch.ReorderLevel, batch.SafetyStock = latest.ReorderLevel, latest.SafetyStock
		}
		if err := e.batches.Create(ctx, batch); err != nil {
			return nil, fmt.Errorf("create destination batch: %w", err)
		}
		lines = append(lines, newBatchLine(batch))
	}
	return lines, nil
}

// plan reads the locked batches of the pair and allocates the request,
// FIFO or from the explicit batch.
func (e *Engine) plan(
	ctx context.Context,
	product *catalog.Product,
	warehouse *catalog.Warehouse,
	d *MovementDescriptor,
) (Plan, error) {
	batches, err := e.batches.ListForUpdate(ctx, product.ID, warehouse.ID)
	if err != nil {
		return Plan{}, fmt.Errorf("list batches: %w", err)
	}

	var plan Plan
	if d.BatchNumber != "" {
		plan, err = AllocateExplicit(findBatch(batches, d.BatchNumber), d.BatchNumber, d.Quantity)
	} else {
		plan, err = Allocate(batches, d.Quantity)
	}
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			appErr.WithDetail("product", product.SKU).WithDetail("warehouse", warehouse.Name)
		}
		return Plan{}, err
	}
	return plan, nil
}

func (e *Engine) applyPlan(ctx context.Context, plan Plan) ([]MovementLine, error) {
	lines := make([]MovementLine, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		before := a.Batch.Quantity
		after := before - a.Take
		if err := e.batches.UpdateQuantity(ctx, a.Batch.ID, before, after); err != nil {
			return nil, fmt.Errorf("deduct batch %s: %w", a.Batch.BatchNumber, err)
		}
		lines = append(lines, MovementLine{
			BatchID:        a.Batch.ID,
			BatchNumber:    a.Batch.BatchNumber,
			WarehouseID:    a.Batch.WarehouseID,
			Direction:      DirectionOut,
			QuantityBefore: before,
			QuantityAfter:  after,
			Delta:          -a.Take,
			UnitCost:       a.Batch.UnitCost,
		})
	}
	return lines, nil
}

func (e *Engine) increment(ctx context.Context, batch *Batch, qty int64) (MovementLine, error) {
	before := batch.Quantity
	after := before + qty
	if err := e.batches.UpdateQuantity(ctx, batch.ID, before, after); err != nil {
		return MovementLine{}, fmt.Errorf("increment batch %s: %w", batch.BatchNumber, err)
	}
	batch.Quantity = after
	return MovementLine{
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		WarehouseID:    batch.WarehouseID,
		Direction:      DirectionIn,
		QuantityBefore: before,
		QuantityAfter:  after,
		Delta:          qty,
		UnitCost:       batch.UnitCost,
	}, nil
}

func newBatchLine(b *Batch) MovementLine {
	return MovementLine{
		BatchID:        b.ID,
		BatchNumber:    b.BatchNumber,
		WarehouseID:    b.WarehouseID,
		Direction:      DirectionIn,
		QuantityBefore: 0,
		QuantityAfter:  b.Quantity,
		Delta:          b.Quantity,
		UnitCost:       b.UnitCost,
	}
}

// valuate fills unit price, total and loss.
//
//	INBOUND   descriptor unit cost, else product price
//	OUTBOUND  descriptor unit price, else product price
//	TRANSFER  cost of the batches moved; loss is zero
//	DAMAGE    cost of the batches destroyed; loss equals total
func valuate(record *MovementRecord, product *catalog.Product, d *MovementDescriptor) {
	switch record.Type {
	case Inbound:
		record.UnitPrice = product.UnitPrice
		if d.UnitCost != nil {
			record.UnitPrice = *d.UnitCost
		}
		record.TotalValue = types.Extend(record.Quantity, record.UnitPrice)
	case Outbound:
		record.UnitPrice = product.UnitPrice
		if d.UnitPrice != nil {
			record.UnitPrice = *d.UnitPrice
		}
		record.TotalValue = types.Extend(record.Quantity, record.UnitPrice)
	case Transfer, Damage:
		total := types.Zero()
		for _, l := range record.Lines {
			if l.Direction == DirectionOut {
				total = total.Add(types.Extend(-l.Delta, l.UnitCost))
			}
		}
		record.TotalValue = total
		record.UnitPrice = total.Div(decimal.NewFromInt(record.Quantity)).Round(4)
		if record.Type == Damage {
			record.LossValue = total
		}
	}
}
