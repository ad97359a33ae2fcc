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
	movementsTable     = "inv_movements"
	movementLinesTable = "inv_movement_lines"

	referenceConstraint = "uq_inv_movements_reference"
)

var lineColumns = []string{
	"movement_id", "line_no", "batch_id", "batch_number", "warehouse_id", "direction",
	"quantity_before", "quantity_after", "delta", "unit_cost",
}

var _ inventory.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implements inventory.MovementRepository. Rows are never
// updated or deleted; a trigger rejects both.
type MovementRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
	cols      []string
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:      postgres.ExtractDBColumns[inventory.MovementRecord](),
	}
}

func (r *MovementRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inv_movements WHERE reference_number = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reference: %w", err)
	}
	return exists, nil
}

func (r *MovementRepo) Append(ctx context.Context, record *inventory.MovementRecord) error {
	sql, args, err := r.builder.
		Insert(movementsTable).
		SetMap(postgres.StructToMap(record)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, referenceConstraint) {
			return apperror.NewDuplicateReference(record.ReferenceNumber).WithCause(err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	if _, err := r.inserter.CopyFromSlice(ctx, movementLinesTable, lineColumns, lineRows(record.Lines)); err != nil {
		return fmt.Errorf("copy movement lines: %w", err)
	}
	return nil
}

func lineRows(lines []inventory.MovementLine) [][]any {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{
			l.MovementID, l.LineNo, l.BatchID, l.BatchNumber, l.WarehouseID, string(l.Direction),
			l.QuantityBefore, l.QuantityAfter, l.Delta, l.UnitCost,
		})
	}
	return rows
}

func (r *MovementRepo) historyQuery(filter inventory.HistoryFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(r.cols...).
		From(movementsTable)

	if filter.SKU != "" {
		q = q.Where(squirrel.Eq{"product_sku": filter.SKU})
	}
	if filter.Warehouse != "" {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"warehouse_name": filter.Warehouse},
			squirrel.Eq{"destination_warehouse_name": filter.Warehouse},
		})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"movement_type": string(filter.Type)})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}

	return q.OrderBy("created_at DESC", "id DESC").Limit(uint64(filter.Limit))
}

func (r *MovementRepo) History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.MovementRecord, error) {
	filter = filter.Normalize()
	sql, args, err := r.historyQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	records := make([]inventory.MovementRecord, 0)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("movement history: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]id.ID, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}

	sql, args, err = r.builder.
		Select(lineColumns...).
		From(movementLinesTable).
		Where(squirrel.Eq{"movement_id": ids}).
		OrderBy("movement_id", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []inventory.MovementLine
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("movement lines: %w", err)
	}

	byMovement := make(map[id.ID][]inventory.MovementLine, len(records))
	for _, l := range lines {
		byMovement[l.MovementID] = append(byMovement[l.MovementID], l)
	}
	for i := range records {
		records[i].Lines = byMovement[records[i].ID]
	}
	return records, nil
}
