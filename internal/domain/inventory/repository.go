package inventory

import (
	"context"
	"time"

	"smartsupply/internal/core/id"
)

// BatchRepository is the Batch Store. Mutating methods must run inside a transaction.
type BatchRepository interface {
	// LockPair serializes writers of one (product, warehouse) pair until the
	// surrounding transaction ends. Callers lock pairs in ascending warehouse order.
	LockPair(ctx context.Context, productID, warehouseID id.ID) error

	// ListForUpdate returns every batch of the pair, empty ones included,
	// in FIFO order and row-locked.
	ListForUpdate(ctx context.Context, productID, warehouseID id.ID) ([]Batch, error)

	Create(ctx context.Context, batch *Batch) error

	// UpdateQuantity moves a batch from before to after. It fails with a
	// ConsistencyViolation when the stored quantity is not before.
	UpdateQuantity(ctx context.Context, batchID id.ID, before, after int64) error

	// List returns batches of a product, optionally limited to one warehouse.
	List(ctx context.Context, filter BatchFilter) ([]Batch, error)

	// LowStock returns pairs whose on-hand total is below their reorder level.
	LowStock(ctx context.Context, limit int) ([]PairLevel, error)
}

// BatchFilter selects batches for stock queries.
type BatchFilter struct {
	ProductID    id.ID
	WarehouseID  *id.ID
	IncludeEmpty bool
}

// MovementRepository is the append-only Audit Log.
type MovementRepository interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)

	// Append stores the record and its lines. A reference collision surfaces
	// as DuplicateReference.
	Append(ctx context.Context, record *MovementRecord) error

	// History returns matching records newest first, lines included.
	History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error)
}

// AuditOutbox durably records the intent to mirror a movement. It is written in
// the same transaction as the movement and finalized by the relay.
type AuditOutbox interface {
	RecordIntent(ctx context.Context, record *MovementRecord) error
}

// AuditMirror is the external copy of the audit log fed by the outbox relay.
type AuditMirror interface {
	// Mirror writes the record. Re-delivery of the same movement is a no-op.
	Mirror(ctx context.Context, record *MovementRecord) error

	// Missing returns the ids from movementIDs that have no mirror entry.
	Missing(ctx context.Context, movementIDs []id.ID) ([]id.ID, error)
}

// LedgerMismatch is a batch whose quantity differs from the sum of its ledger deltas.
type LedgerMismatch struct {
	BatchID  id.ID `db:"batch_id"`
	Quantity int64 `db:"quantity"`
	Ledger   int64 `db:"ledger"`
}

// IntentRef identifies an outbox intent and its movement.
type IntentRef struct {
	EventID    id.ID     `db:"event_id"`
	MovementID id.ID     `db:"movement_id"`
	Status     string    `db:"status"`
	RetryCount int       `db:"retry_count"`
	CreatedAt  time.Time `db:"created_at"`
}

// ReconciliationRepository exposes the cross-checks run by the Reconciler and
// persists what it finds.
type ReconciliationRepository interface {
	LedgerMismatches(ctx context.Context) ([]LedgerMismatch, error)
	MovementsWithoutIntent(ctx context.Context) ([]id.ID, error)
	IntentsWithoutMovement(ctx context.Context) ([]IntentRef, error)
	StaleIntents(ctx context.Context, olderThan time.Time) ([]IntentRef, error)
	FailedIntents(ctx context.Context) ([]IntentRef, error)
	PublishedIntents(ctx context.Context, limit int) ([]IntentRef, error)

	// RecordIssue stores an issue unless one with the same kind and subject
	// exists. It reports whether a row was inserted.
	RecordIssue(ctx context.Context, issue *Issue) (bool, error)
	ListIssues(ctx context.Context, limit int) ([]Issue, error)
}
