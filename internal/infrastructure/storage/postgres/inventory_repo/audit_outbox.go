package inventory_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/storage/postgres"
)

const (
	AggregateMovement     = "movement"
	EventMovementRecorded = "movement.recorded"
)

var (
	_ inventory.AuditOutbox  = (*AuditOutbox)(nil)
	_ postgres.OutboxHandler = (*MirrorHandler)(nil)
)

// AuditOutbox writes the movement.recorded intent through the outbox publisher.
type AuditOutbox struct {
	publisher *postgres.OutboxPublisher
}

// NewAuditOutbox creates the audit intent writer.
func NewAuditOutbox(publisher *postgres.OutboxPublisher) *AuditOutbox {
	return &AuditOutbox{publisher: publisher}
}

func (o *AuditOutbox) RecordIntent(ctx context.Context, record *inventory.MovementRecord) error {
	_, err := o.publisher.Publish(ctx, postgres.DomainEvent{
		AggregateType: AggregateMovement,
		AggregateID:   record.ID,
		EventType:     EventMovementRecorded,
		Payload:       record,
	})
	return err
}

// Mirror is the audit mirror for every event type the relay carries.
type Mirror interface {
	inventory.AuditMirror
	catalog.AuditMirror
}

// MirrorHandler routes outbox events to the audit mirror.
type MirrorHandler struct {
	mirror Mirror
}

// NewMirrorHandler creates the relay handler.
func NewMirrorHandler(mirror Mirror) *MirrorHandler {
	return &MirrorHandler{mirror: mirror}
}

func (h *MirrorHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case EventMovementRecorded:
		record, err := DecodeMovement(msg.Payload)
		if err != nil {
			return err
		}
		return h.mirror.Mirror(ctx, record)

	case catalog.EventCreated:
		event, err := DecodeCatalogEvent(msg)
		if err != nil {
			return err
		}
		return h.mirror.MirrorCatalogEvent(ctx, event)

	default:
		return fmt.Errorf("unexpected event type %q", msg.EventType)
	}
}

// DecodeCatalogEvent parses a catalog.created payload. The event id is the
// outbox message id.
func DecodeCatalogEvent(msg *postgres.OutboxMessage) (*catalog.Event, error) {
	var event catalog.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode catalog payload: %w", err)
	}
	event.EventID = msg.ID
	return &event, nil
}

// DecodeMovement parses a movement.recorded payload. Line movement ids are not
// serialized and are restored from the record.
func DecodeMovement(payload []byte) (*inventory.MovementRecord, error) {
	var record inventory.MovementRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode movement payload: %w", err)
	}
	for i := range record.Lines {
		record.Lines[i].MovementID = record.ID
	}
	return &record, nil
}
