// Package catalog holds products and warehouses: the reference records every
// inventory movement resolves before touching stock.
package catalog

import (
	"strings"
	"time"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
	"smartsupply/internal/core/types"
)

// Product is a stock-keeping unit. SKU is unique.
type Product struct {
	ID            id.ID       `db:"id" json:"id"`
	SKU           string      `db:"sku" json:"sku"`
	Name          string      `db:"name" json:"name"`
	Category      string      `db:"category" json:"category"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	UnitOfMeasure string      `db:"unit_of_measure" json:"unitOfMeasure"`
	Description   *string     `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a Product with a fresh id.
func NewProduct(sku, name string, unitPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:            id.New(),
		SKU:           strings.TrimSpace(sku),
		Name:          strings.TrimSpace(name),
		UnitPrice:     unitPrice,
		UnitOfMeasure: "pcs",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks required fields.
func (p *Product) Validate() error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if len(p.SKU) > 64 {
		return apperror.NewValidation("sku is too long").WithDetail("field", "sku").WithDetail("max", 64)
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice").
			WithDetail("value", p.UnitPrice.String())
	}
	return nil
}

// Warehouse is a stock location. Name is unique; Location is the free-form
// address shown to operators.
// Capacity is advisory and never enforced on movements.
type Warehouse struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	Region    string    `db:"region" json:"region"`
	Capacity  int64     `db:"capacity" json:"capacity"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

const maxLocationLength = 255

// NewWarehouse creates a Warehouse with a fresh id.
func NewWarehouse(name, region string, capacity int64) *Warehouse {
	now := time.Now().UTC()
	return &Warehouse{
		ID:        id.New(),
		Name:      strings.TrimSpace(name),
		Region:    strings.TrimSpace(region),
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (w *Warehouse) Validate() error {
	if w.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(w.Location) > maxLocationLength {
		return apperror.NewValidation("location is too long").
			WithDetail("field", "location").
			WithDetail("max", maxLocationLength)
	}
	if w.Capacity < 0 {
		return apperror.NewValidation("capacity must not be negative").
			WithDetail("field", "capacity").
			WithDetail("value", w.Capacity)
	}
	if w.Latitude != nil && (*w.Latitude < -90 || *w.Latitude > 90) {
		return apperror.NewValidation("latitude out of range").WithDetail("field", "latitude")
	}
	if w.Longitude != nil && (*w.Longitude < -180 || *w.Longitude > 180) {
		return apperror.NewValidation("longitude out of range").WithDetail("field", "longitude")
	}
	return nil
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search   string // substring of sku/name
	Category string // products only
	Region   string // warehouses only
	Limit    int
	Offset   int
}

// Normalize applies paging defaults.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
