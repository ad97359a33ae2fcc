package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
)

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	products   map[id.ID]Product
	warehouses map[id.ID]Warehouse
}

// NewMemoryRepository creates an empty in-memory catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:   make(map[id.ID]Product),
		warehouses: make(map[id.ID]Warehouse),
	}
}

func (m *MemoryRepository) ProductByID(_ context.Context, productID id.ID) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (m *MemoryRepository) ProductBySKU(_ context.Context, sku string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (m *MemoryRepository) WarehouseByID(_ context.Context, warehouseID id.ID) (*Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return &w, nil
}

func (m *MemoryRepository) WarehouseByName(_ context.Context, name string) (*Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.warehouses {
		if w.Name == name {
			return &w, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", name)
}

func (m *MemoryRepository) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
	}
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryRepository) CreateWarehouse(_ context.Context, w *Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.warehouses {
		if existing.Name == w.Name {
			return apperror.NewDuplicate("warehouse", "name", w.Name)
		}
	}
	m.warehouses[w.ID] = *w
	return nil
}

func (m *MemoryRepository) ListProducts(_ context.Context, filter ListFilter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !containsFold(p.SKU+" "+p.Name, filter.Search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, filter), nil
}

func (m *MemoryRepository) ListWarehouses(_ context.Context, filter ListFilter) ([]Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Warehouse, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		if filter.Region != "" && w.Region != filter.Region {
			continue
		}
		if filter.Search != "" && !containsFold(w.Name, filter.Search) &&
			!containsFold(w.Location, filter.Search) && !containsFold(w.Region, filter.Search) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter), nil
}

func page[T any](items []T, filter ListFilter) []T {
	filter = filter.Normalize()
	if filter.Offset >= len(items) {
		return []T{}
	}
	end := filter.Offset + filter.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[filter.Offset:end]
}

var _ Repository = (*MemoryRepository)(nil)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
