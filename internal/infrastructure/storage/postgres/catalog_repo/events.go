package catalog_repo

import (
	"context"

	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/infrastructure/storage/postgres"
)

var _ catalog.EventPublisher = (*AuditOutbox)(nil)

// AuditOutbox writes catalog events to sys_outbox. The aggregate type is the
// entity kind, so movement reconciliation never sees these rows.
type AuditOutbox struct {
	publisher *postgres.OutboxPublisher
}

// NewAuditOutbox creates the catalog event writer.
func NewAuditOutbox(publisher *postgres.OutboxPublisher) *AuditOutbox {
	return &AuditOutbox{publisher: publisher}
}

func (o *AuditOutbox) PublishCatalogEvent(ctx context.Context, event *catalog.Event) error {
	eventID, err := o.publisher.Publish(ctx, postgres.DomainEvent{
		AggregateType: event.Entity,
		AggregateID:   event.EntityID,
		EventType:     catalog.EventCreated,
		Payload:       event,
	})
	if err != nil {
		return err
	}
	event.EventID = eventID
	return nil
}
