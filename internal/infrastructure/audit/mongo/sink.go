// Package mongo mirrors the audit log into a MongoDB collection: one document
// per movement line and one per catalog event.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/domain/inventory"
)

const DefaultCollection = "audit_logs"

const (
	KindMovementLine = "movement_line"
	KindCatalog      = "catalog"
)

var (
	_ inventory.AuditMirror = (*Sink)(nil)
	_ catalog.AuditMirror   = (*Sink)(nil)
)

// LineDocument is the mirrored form of one movement line. (movement_id, line_no)
// is unique, so re-delivery overwrites instead of duplicating.
type LineDocument struct {
	Kind            string    `bson:"kind"`
	MovementID      string    `bson:"movement_id"`
	LineNo          int       `bson:"line_no"`
	Type            string    `bson:"movement_type"`
	ReferenceNumber string    `bson:"reference_number"`
	CorrelationID   string    `bson:"correlation_id"`
	ProductID       string    `bson:"product_id"`
	ProductSKU      string    `bson:"product_sku"`
	WarehouseID     string    `bson:"warehouse_id"`
	BatchID         string    `bson:"batch_id"`
	BatchNumber     string    `bson:"batch_number"`
	Direction       string    `bson:"direction"`
	QuantityBefore  int64     `bson:"quantity_before"`
	QuantityAfter   int64     `bson:"quantity_after"`
	Delta           int64     `bson:"delta"`
	UnitCost        string    `bson:"unit_cost"`
	Reason          *string   `bson:"reason,omitempty"`
	RecordedAt      time.Time `bson:"recorded_at"`
}

// Documents maps a movement to its mirror documents.
func Documents(record *inventory.MovementRecord) []LineDocument {
	docs := make([]LineDocument, 0, len(record.Lines))
	for _, l := range record.Lines {
		docs = append(docs, LineDocument{
			Kind:            KindMovementLine,
			MovementID:      record.ID.String(),
			LineNo:          l.LineNo,
			Type:            string(record.Type),
			ReferenceNumber: record.ReferenceNumber,
			CorrelationID:   record.CorrelationID,
			ProductID:       record.ProductID.String(),
			ProductSKU:      record.ProductSKU,
			WarehouseID:     l.WarehouseID.String(),
			BatchID:         l.BatchID.String(),
			BatchNumber:     l.BatchNumber,
			Direction:       string(l.Direction),
			QuantityBefore:  l.QuantityBefore,
			QuantityAfter:   l.QuantityAfter,
			Delta:           l.Delta,
			UnitCost:        l.UnitCost.String(),
			Reason:          record.DamageReason,
			RecordedAt:      record.CreatedAt.UTC(),
		})
	}
	return docs
}

// CatalogDocument is the mirrored form of a catalog event, unique on event_id.
type CatalogDocument struct {
	Kind          string         `bson:"kind"`
	EventID       string         `bson:"event_id"`
	Action        string         `bson:"action"`
	EntityType    string         `bson:"entity_type"`
	EntityID      string         `bson:"entity_id"`
	Key           string         `bson:"key"`
	CorrelationID string         `bson:"correlation_id"`
	Details       map[string]any `bson:"details"`
	RecordedAt    time.Time      `bson:"recorded_at"`
}

// CatalogDocumentFor maps a catalog event to its mirror document.
func CatalogDocumentFor(event *catalog.Event) CatalogDocument {
	return CatalogDocument{
		Kind:          KindCatalog,
		EventID:       event.EventID.String(),
		Action:        event.Action,
		EntityType:    event.Entity,
		EntityID:      event.EntityID.String(),
		Key:           event.Key,
		CorrelationID: event.CorrelationID,
		Details:       event.Details,
		RecordedAt:    event.OccurredAt.UTC(),
	}
}

// Sink implements inventory.AuditMirror and catalog.AuditMirror.
type Sink struct {
	coll *mongo.Collection
}

// Connect dials MongoDB and returns the client with a sink on database.collection.
func Connect(ctx context.Context, uri, database, collection string) (*mongo.Client, *Sink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return client, NewSink(client.Database(database).Collection(collection)), nil
}

// NewSink wraps an existing collection.
func NewSink(coll *mongo.Collection) *Sink {
	return &Sink{coll: coll}
}

// EnsureIndexes creates the unique line and catalog event indexes and a
// reference lookup index. The unique indexes are partial on their kind.
func (s *Sink) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "movement_id", Value: 1}, {Key: "line_no", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_movement_line").
				SetPartialFilterExpression(bson.D{{Key: "kind", Value: KindMovementLine}}),
		},
		{
			Keys: bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_catalog_event").
				SetPartialFilterExpression(bson.D{{Key: "kind", Value: KindCatalog}}),
		},
		{
			Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetName("ix_catalog_entity"),
		},
		{
			Keys:    bson.D{{Key: "reference_number", Value: 1}},
			Options: options.Index().SetName("ix_reference_number"),
		},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (s *Sink) Mirror(ctx context.Context, record *inventory.MovementRecord) error {
	docs := Documents(record)
	if len(docs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{
				{Key: "kind", Value: KindMovementLine},
				{Key: "movement_id", Value: doc.MovementID},
				{Key: "line_no", Value: doc.LineNo},
			}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("mirror movement %s: %w", record.ID, err)
	}
	return nil
}

func (s *Sink) MirrorCatalogEvent(ctx context.Context, event *catalog.Event) error {
	doc := CatalogDocumentFor(event)
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "kind", Value: KindCatalog}, {Key: "event_id", Value: doc.EventID}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mirror catalog event %s: %w", doc.EventID, err)
	}
	return nil
}

func (s *Sink) Missing(ctx context.Context, movementIDs []id.ID) ([]id.ID, error) {
	if len(movementIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(movementIDs))
	for i, mid := range movementIDs {
		keys[i] = mid.String()
	}

	found, err := s.coll.Distinct(ctx, "movement_id", bson.D{{Key: "movement_id", Value: bson.D{{Key: "$in", Value: keys}}}})
	if err != nil {
		return nil, fmt.Errorf("distinct mirrored movements: %w", err)
	}
	return missingFrom(movementIDs, found), nil
}

func missingFrom(want []id.ID, found []any) []id.ID {
	present := make(map[string]struct{}, len(found))
	for _, v := range found {
		if s, ok := v.(string); ok {
			present[s] = struct{}{}
		}
	}
	var out []id.ID
	for _, mid := range want {
		if _, ok := present[mid.String()]; !ok {
			out = append(out, mid)
		}
	}
	return out
}
