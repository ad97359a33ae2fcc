// Package tx defines the transaction contract the domain depends on.
// The pgx implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Nested calls reuse the transaction already stored in ctx, so repositories
// invoked inside fn all see the same snapshot and locks.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Queries use it to read batches and ledger rows from one consistent snapshot.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
