package catalog

import (
	"context"
	"time"

	appctx "smartsupply/internal/core/context"
	"smartsupply/internal/core/id"
)

const (
	EventCreated = "catalog.created"

	EntityProduct   = "product"
	EntityWarehouse = "warehouse"

	ActionCreated = "created"
)

// Event is the audit entry for a catalog change. Details holds a flat copy of
// the record as it was stored.
type Event struct {
	EventID       id.ID          `json:"-"`
	Entity        string         `json:"entity"`
	EntityID      id.ID          `json:"entityId"`
	Action        string         `json:"action"`
	Key           string         `json:"key"`
	CorrelationID string         `json:"correlationId"`
	Details       map[string]any `json:"details"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

// EventPublisher records catalog events. It is called inside the transaction
// that stores the record.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event *Event) error
}

// AuditMirror receives catalog events delivered by the outbox relay.
// Re-delivery of the same EventID must not duplicate the entry.
type AuditMirror interface {
	MirrorCatalogEvent(ctx context.Context, event *Event) error
}

// ProductCreated builds the event for a stored product.
func ProductCreated(ctx context.Context, p *Product) *Event {
	details := map[string]any{
		"sku":             p.SKU,
		"name":            p.Name,
		"category":        p.Category,
		"unit_price":      p.UnitPrice.String(),
		"unit_of_measure": p.UnitOfMeasure,
	}
	if p.Description != nil {
		details["description"] = *p.Description
	}
	return newEvent(ctx, EntityProduct, p.ID, p.SKU, details, p.CreatedAt)
}

// WarehouseCreated builds the event for a stored warehouse.
func WarehouseCreated(ctx context.Context, w *Warehouse) *Event {
	details := map[string]any{
		"name":     w.Name,
		"location": w.Location,
		"region":   w.Region,
		"capacity": w.Capacity,
	}
	if w.Latitude != nil {
		details["latitude"] = *w.Latitude
	}
	if w.Longitude != nil {
		details["longitude"] = *w.Longitude
	}
	return newEvent(ctx, EntityWarehouse, w.ID, w.Name, details, w.CreatedAt)
}

func newEvent(ctx context.Context, entity string, entityID id.ID, key string, details map[string]any, at time.Time) *Event {
	return &Event{
		Entity:        entity,
		EntityID:      entityID,
		Action:        ActionCreated,
		Key:           key,
		CorrelationID: appctx.GetCorrelationID(ctx),
		Details:       details,
		OccurredAt:    at.UTC(),
	}
}
