package dto

import (
	"strings"

	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/catalog"
)

// CreateProductRequest is the body of POST /catalog/products.
type CreateProductRequest struct {
	SKU           string      `json:"sku" binding:"required"`
	Name          string      `json:"name" binding:"required"`
	Category      string      `json:"category"`
	UnitPrice     types.Money `json:"unitPrice"`
	UnitOfMeasure string      `json:"unitOfMeasure"`
	Description   *string     `json:"description"`
}

// ToProduct builds a new product.
func (r *CreateProductRequest) ToProduct() *catalog.Product {
	p := catalog.NewProduct(r.SKU, r.Name, r.UnitPrice)
	p.Category = r.Category
	if r.UnitOfMeasure != "" {
		p.UnitOfMeasure = r.UnitOfMeasure
	}
	p.Description = r.Description
	return p
}

// CreateWarehouseRequest is the body of POST /catalog/warehouses.
type CreateWarehouseRequest struct {
	Name      string   `json:"name" binding:"required"`
	Location  string   `json:"location"`
	Region    string   `json:"region"`
	Capacity  int64    `json:"capacity"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ToWarehouse builds a new warehouse.
func (r *CreateWarehouseRequest) ToWarehouse() *catalog.Warehouse {
	w := catalog.NewWarehouse(r.Name, r.Region, r.Capacity)
	w.Location = strings.TrimSpace(r.Location)
	w.Latitude = r.Latitude
	w.Longitude = r.Longitude
	return w
}

// ToFilter converts list parameters.
func (f *ListFilter) ToFilter() catalog.ListFilter {
	return catalog.ListFilter{
		Search:   f.Search,
		Category: f.Category,
		Region:   f.Region,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
}
