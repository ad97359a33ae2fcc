// Package inventory_repo provides the PostgreSQL Batch Store, Audit Log and
// reconciliation queries.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/storage/postgres"
)

const (
	batchesTable = "inv_batches"

	batchQuantityCheck = "ck_inv_batches_quantity"
)

var _ inventory.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implements inventory.BatchRepository.
type BatchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	cols      []string
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:      postgres.ExtractDBColumns[inventory.Batch](),
	}
}

// pairKey is the advisory lock key of one (product, warehouse) pair.
func pairKey(productID, warehouseID id.ID) string {
	return productID.String() + ":" + warehouseID.String()
}

// LockPair takes a transaction-scoped advisory lock. It also covers pairs
// that have no batch rows yet, which FOR UPDATE alone cannot.
func (r *BatchRepo) LockPair(ctx context.Context, productID, warehouseID id.ID) error {
	tx := r.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("LockPair requires transaction context")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pairKey(productID, warehouseID)); err != nil {
		return fmt.Errorf("lock pair: %w", err)
	}
	return nil
}

func (r *BatchRepo) forUpdateQuery(productID, warehouseID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(r.cols...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID, "warehouse_id": warehouseID}).
		OrderBy("received_at", "id").
		Suffix("FOR UPDATE")
}

func (r *BatchRepo) ListForUpdate(ctx context.Context, productID, warehouseID id.ID) ([]inventory.Batch, error) {
	sql, args, err := r.forUpdateQuery(productID, warehouseID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []inventory.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches for update: %w", err)
	}
	return batches, nil
}

func (r *BatchRepo) Create(ctx context.Context, batch *inventory.Batch) error {
	sql, args, err := r.builder.
		Insert(batchesTable).
		SetMap(postgres.StructToMap(batch)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewConsistencyViolation("batch_number_taken", batch.BatchNumber).WithCause(err)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) updateQuery(batchID id.ID, before, after int64) squirrel.UpdateBuilder {
	return r.builder.
		Update(batchesTable).
		Set("quantity", after).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": batchID, "quantity": before})
}

// UpdateQuantity is a compare-and-set on the stored quantity.
func (r *BatchRepo) UpdateQuantity(ctx context.Context, batchID id.ID, before, after int64) error {
	sql, args, err := r.updateQuery(batchID, before, after).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsCheckViolation(err, batchQuantityCheck) {
			return apperror.NewConsistencyViolation("negative_batch_quantity", batchID).
				WithDetail("after", after).
				WithCause(err)
		}
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConsistencyViolation("batch_quantity_changed", batchID).
			WithDetail("expected", before)
	}
	return nil
}

func (r *BatchRepo) listQuery(filter inventory.BatchFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(r.cols...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": filter.ProductID})
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if !filter.IncludeEmpty {
		q = q.Where(squirrel.Gt{"quantity": 0})
	}
	return q.OrderBy("received_at", "id")
}

func (r *BatchRepo) List(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	batches := make([]inventory.Batch, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

func (r *BatchRepo) lowStockQuery(limit int) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"product_id",
			"warehouse_id",
			"SUM(quantity)::BIGINT AS on_hand",
			"MAX(reorder_level) AS reorder_level",
			"MAX(safety_stock) AS safety_stock",
		).
		From(batchesTable).
		GroupBy("product_id", "warehouse_id").
		Having("SUM(quantity) < MAX(reorder_level)").
		OrderBy("MAX(reorder_level) - SUM(quantity) DESC").
		Limit(uint64(limit))
}

func (r *BatchRepo) LowStock(ctx context.Context, limit int) ([]inventory.PairLevel, error) {
	sql, args, err := r.lowStockQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	levels := make([]inventory.PairLevel, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return levels, nil
}
