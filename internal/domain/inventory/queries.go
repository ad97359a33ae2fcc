package inventory

import (
	"context"
	"fmt"
	"sort"

	"smartsupply/internal/core/id"
	"smartsupply/internal/core/tx"
	"smartsupply/internal/domain/catalog"
)

// QueryService answers stock and history questions. It never writes.
type QueryService struct {
	txManager tx.ReadOnlyManager
	catalog   catalog.Lookup
	batches   BatchRepository
	movements MovementRepository
}

// NewQueryService creates a query service.
func NewQueryService(
	txManager tx.ReadOnlyManager,
	lookup catalog.Lookup,
	batches BatchRepository,
	movements MovementRepository,
) *QueryService {
	return &QueryService{
		txManager: txManager,
		catalog:   lookup,
		batches:   batches,
		movements: movements,
	}
}

// GetStock returns the on-hand total of a product, broken down per warehouse.
// warehouseRef is optional.
func (s *QueryService) GetStock(ctx context.Context, productRef, warehouseRef string) (*StockLevel, error) {
	return s.stock(ctx, productRef, warehouseRef, false)
}

// GetInventoryDetails is GetStock for one warehouse with every batch listed,
// exhausted ones included.
func (s *QueryService) GetInventoryDetails(ctx context.Context, productRef, warehouseRef string) (*StockLevel, error) {
	return s.stock(ctx, productRef, warehouseRef, true)
}

func (s *QueryService) stock(ctx context.Context, productRef, warehouseRef string, includeEmpty bool) (*StockLevel, error) {
	product, err := catalog.ResolveProduct(ctx, s.catalog, productRef)
	if err != nil {
		return nil, err
	}
	filter := BatchFilter{ProductID: product.ID, IncludeEmpty: includeEmpty}
	if warehouseRef != "" {
		w, err := catalog.ResolveWarehouse(ctx, s.catalog, warehouseRef)
		if err != nil {
			return nil, err
		}
		filter.WarehouseID = &w.ID
	}

	var batches []Batch
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		batches, err = s.batches.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	level := &StockLevel{
		ProductID:   product.ID,
		ProductSKU:  product.SKU,
		ProductName: product.Name,
		Warehouses:  []WarehouseStock{},
	}
	index := make(map[id.ID]int)
	for _, b := range batches {
		i, ok := index[b.WarehouseID]
		if !ok {
			i = len(level.Warehouses)
			index[b.WarehouseID] = i
			level.Warehouses = append(level.Warehouses, WarehouseStock{WarehouseID: b.WarehouseID})
		}
		ws := &level.Warehouses[i]
		ws.OnHand += b.Quantity
		ws.ReorderLevel = max(ws.ReorderLevel, b.ReorderLevel)
		ws.SafetyStock = max(ws.SafetyStock, b.SafetyStock)
		ws.Batches = append(ws.Batches, b)
		level.Total += b.Quantity
	}

	for i := range level.Warehouses {
		ws := &level.Warehouses[i]
		w, err := s.catalog.WarehouseByID(ctx, ws.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("resolve warehouse %s: %w", ws.WarehouseID, err)
		}
		ws.WarehouseName = w.Name
		sort.Slice(ws.Batches, func(a, b int) bool { return ws.Batches[a].Before(ws.Batches[b]) })
	}
	sort.Slice(level.Warehouses, func(a, b int) bool {
		return level.Warehouses[a].WarehouseName < level.Warehouses[b].WarehouseName
	})
	return level, nil
}

// GetLowStock lists pairs whose on-hand quantity is below their reorder level,
// largest shortage first.
func (s *QueryService) GetLowStock(ctx context.Context, limit int) ([]LowStockItem, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var levels []PairLevel
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		levels, err = s.batches.LowStock(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}

	items := make([]LowStockItem, 0, len(levels))
	for _, l := range levels {
		p, err := s.catalog.ProductByID(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve product %s: %w", l.ProductID, err)
		}
		w, err := s.catalog.WarehouseByID(ctx, l.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("resolve warehouse %s: %w", l.WarehouseID, err)
		}
		items = append(items, LowStockItem{
			ProductID:     l.ProductID,
			ProductSKU:    p.SKU,
			ProductName:   p.Name,
			WarehouseID:   l.WarehouseID,
			WarehouseName: w.Name,
			OnHand:        l.OnHand,
			ReorderLevel:  l.ReorderLevel,
			SafetyStock:   l.SafetyStock,
			Shortage:      l.ReorderLevel - l.OnHand,
			BelowSafety:   l.OnHand < l.SafetyStock,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Shortage != items[j].Shortage {
			return items[i].Shortage > items[j].Shortage
		}
		return items[i].ProductSKU < items[j].ProductSKU
	})
	return items, nil
}

// GetMovementHistory returns movement records, newest first.
func (s *QueryService) GetMovementHistory(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.SKU != "" {
		p, err := catalog.ResolveProduct(ctx, s.catalog, filter.SKU)
		if err != nil {
			return nil, err
		}
		filter.SKU = p.SKU
	}
	if filter.Warehouse != "" {
		w, err := catalog.ResolveWarehouse(ctx, s.catalog, filter.Warehouse)
		if err != nil {
			return nil, err
		}
		filter.Warehouse = w.Name
	}

	var records []MovementRecord
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.movements.History(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("movement history: %w", err)
	}
	return records, nil
}
