// Package audit holds audit mirror sinks that need no external store.
package audit

import (
	"context"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/inventory"
	"smartsupply/pkg/logger"
)

var (
	_ inventory.AuditMirror = LogMirror{}
	_ catalog.AuditMirror   = LogMirror{}
)

// LogMirror writes each delivered movement to the structured log. It keeps no
// state, so Missing never reports anything.
type LogMirror struct{}

func (LogMirror) Mirror(ctx context.Context, record *inventory.MovementRecord) error {
	logger.Info(ctx, "audit movement",
		"movement_id", record.ID,
		"type", record.Type,
		"reference", record.ReferenceNumber,
		"correlation_id", record.CorrelationID,
		"product_sku", record.ProductSKU,
		"quantity", record.Quantity,
		"lines", len(record.Lines),
	)
	return nil
}

func (LogMirror) MirrorCatalogEvent(ctx context.Context, event *catalog.Event) error {
	logger.Info(ctx, "audit catalog",
		"event_id", event.EventID,
		"entity", event.Entity,
		"entity_id", event.EntityID,
		"action", event.Action,
		"key", event.Key,
		"correlation_id", event.CorrelationID,
	)
	return nil
}

func (LogMirror) Missing(context.Context, []id.ID) ([]id.ID, error) {
	return nil, nil
}
