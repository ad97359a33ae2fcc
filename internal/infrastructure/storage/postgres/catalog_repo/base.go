// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	uniqueCol  string
	selectCols []string
	searchCols []string
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName, uniqueCol string,
	searchCols []string,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		uniqueCol:  uniqueCol,
		selectCols: postgres.ExtractDBColumns[T](),
		searchCols: searchCols,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// insertQuery builds the INSERT for entity using its "db" tags.
func (r *BaseCatalogRepo[T]) insertQuery(entity *T) (string, []any, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in entity")
	}

	// Filter to only include columns that exist in DB
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	return r.Builder().
		Insert(r.tableName).
		SetMap(filtered).
		ToSql()
}

// Create inserts a new entity. A unique violation becomes apperror Duplicate
// carrying value.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity *T, value string) error {
	sql, args, err := r.insertQuery(entity)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate(r.entityName, r.uniqueCol, value).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetBy retrieves a single entity where col = value.
func (r *BaseCatalogRepo[T]) GetBy(ctx context.Context, col string, value any) (*T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{col: value}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, value)
		}
		return nil, fmt.Errorf("get %s by %s: %w", r.entityName, col, err)
	}
	return entity, nil
}

// listQuery applies search, equality filters and paging.
func (r *BaseCatalogRepo[T]) listQuery(search string, eq squirrel.Eq, orderBy string, limit, offset int) squirrel.SelectBuilder {
	q := r.baseSelect()

	if search != "" {
		pattern := "%" + search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}

	q = q.OrderBy(orderBy)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}

// List runs a query built by listQuery.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}
