package inventory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
	"smartsupply/internal/core/tx"
)

type memTxKey struct{}

// MemoryStore is an in-memory Batch Store, Audit Log, audit outbox and
// transaction manager for unit tests. Transactions are serialized by a single
// mutex and rolled back by restoring a snapshot.
type MemoryStore struct {
	mu    sync.Mutex
	state memState

	// FailIntent, when set, is returned by RecordIntent.
	FailIntent error

	locks []string
}

type memState struct {
	batches   map[id.ID]Batch
	movements []MovementRecord
	intents   []id.ID
}

func (s memState) clone() memState {
	return memState{
		batches:   maps.Clone(s.batches),
		movements: slices.Clone(s.movements),
		intents:   slices.Clone(s.intents),
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{batches: make(map[id.ID]Batch)}}
}

// RunInTransaction implements tx.Manager.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *MemoryStore) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

func (s *MemoryStore) with(ctx context.Context, fn func()) {
	if ctx.Value(memTxKey{}) != nil {
		fn()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *MemoryStore) LockPair(ctx context.Context, productID, warehouseID id.ID) error {
	s.with(ctx, func() {
		s.locks = append(s.locks, productID.String()+":"+warehouseID.String())
	})
	return nil
}

func (s *MemoryStore) ListForUpdate(ctx context.Context, productID, warehouseID id.ID) ([]Batch, error) {
	var out []Batch
	s.with(ctx, func() {
		for _, b := range s.state.batches {
			if b.ProductID == productID && b.WarehouseID == warehouseID {
				out = append(out, b)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, batch *Batch) error {
	var err error
	s.with(ctx, func() {
		for _, b := range s.state.batches {
			if b.ProductID == batch.ProductID && b.WarehouseID == batch.WarehouseID && b.BatchNumber == batch.BatchNumber {
				err = apperror.NewDuplicate("batch", "batch_number", batch.BatchNumber)
				return
			}
		}
		if batch.Quantity < 0 {
			err = apperror.NewInvalidQuantity(batch.Quantity)
			return
		}
		s.state.batches[batch.ID] = *batch
	})
	return err
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, batchID id.ID, before, after int64) error {
	var err error
	s.with(ctx, func() {
		b, ok := s.state.batches[batchID]
		switch {
		case !ok:
			err = apperror.NewNotFound("batch", batchID.String())
		case b.Quantity != before:
			err = apperror.NewConsistencyViolation("batch_changed_under_lock", batchID)
		case after < 0:
			err = fmt.Errorf("batch %s: quantity would become negative", batchID)
		default:
			b.Quantity = after
			b.Version++
			s.state.batches[batchID] = b
		}
	})
	return err
}

func (s *MemoryStore) List(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	var out []Batch
	s.with(ctx, func() {
		for _, b := range s.state.batches {
			if b.ProductID != filter.ProductID {
				continue
			}
			if filter.WarehouseID != nil && b.WarehouseID != *filter.WarehouseID {
				continue
			}
			if !filter.IncludeEmpty && b.Quantity == 0 {
				continue
			}
			out = append(out, b)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *MemoryStore) LowStock(ctx context.Context, limit int) ([]PairLevel, error) {
	type pair struct{ product, warehouse id.ID }
	levels := make(map[pair]*PairLevel)
	s.with(ctx, func() {
		for _, b := range s.state.batches {
			k := pair{b.ProductID, b.WarehouseID}
			l, ok := levels[k]
			if !ok {
				l = &PairLevel{ProductID: b.ProductID, WarehouseID: b.WarehouseID}
				levels[k] = l
			}
			l.OnHand += b.Quantity
			l.ReorderLevel = max(l.ReorderLevel, b.ReorderLevel)
			l.SafetyStock = max(l.SafetyStock, b.SafetyStock)
		}
	})

	var out []PairLevel
	for _, l := range levels {
		if l.OnHand < l.ReorderLevel {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReorderLevel-out[i].OnHand > out[j].ReorderLevel-out[j].OnHand
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	s.with(ctx, func() {
		for _, m := range s.state.movements {
			if m.ReferenceNumber == reference {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (s *MemoryStore) Append(ctx context.Context, record *MovementRecord) error {
	var err error
	s.with(ctx, func() {
		for _, m := range s.state.movements {
			if m.ReferenceNumber == record.ReferenceNumber {
				err = apperror.NewDuplicateReference(record.ReferenceNumber)
				return
			}
		}
		stored := *record
		stored.Lines = slices.Clone(record.Lines)
		s.state.movements = append(s.state.movements, stored)
	})
	return err
}

func (s *MemoryStore) History(ctx context.Context, filter HistoryFilter) ([]MovementRecord, error) {
	var out []MovementRecord
	s.with(ctx, func() {
		for _, m := range s.state.movements {
			if filter.SKU != "" && m.ProductSKU != filter.SKU {
				continue
			}
			if filter.Warehouse != "" && m.WarehouseName != filter.Warehouse &&
				(m.DestinationWarehouseName == nil || *m.DestinationWarehouseName != filter.Warehouse) {
				continue
			}
			if filter.Type != "" && m.Type != filter.Type {
				continue
			}
			if filter.From != nil && m.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && m.CreatedAt.After(*filter.To) {
				continue
			}
			out = append(out, m)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return id.Less(out[j].ID, out[i].ID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) RecordIntent(ctx context.Context, record *MovementRecord) error {
	if s.FailIntent != nil {
		return s.FailIntent
	}
	s.with(ctx, func() {
		s.state.intents = append(s.state.intents, record.ID)
	})
	return nil
}

// Batches returns a copy of every stored batch in FIFO order.
func (s *MemoryStore) Batches() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Collect(maps.Values(s.state.batches))
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Movements returns a copy of the audit log in insertion order.
func (s *MemoryStore) Movements() []MovementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.movements)
}

// Intents returns the movement ids with a recorded audit intent.
func (s *MemoryStore) Intents() []id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.intents)
}

// Locks returns the pair locks taken so far, in acquisition order.
func (s *MemoryStore) Locks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.locks)
}

var (
	_ BatchRepository    = (*MemoryStore)(nil)
	_ MovementRepository = (*MemoryStore)(nil)
	_ AuditOutbox        = (*MemoryStore)(nil)
	_ tx.ReadOnlyManager = (*MemoryStore)(nil)
)
