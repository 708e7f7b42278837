// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// T is a pointer to a struct with "db" tags.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	orderBy    string
	newEntity  func() T
	now        func() time.Time
}

// NewBaseCatalogRepo creates a base repository over tableName.
func NewBaseCatalogRepo[T any](txm *postgres.TxManager, tableName, entityName string, newEntity func() T) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		orderBy:    "name ASC, id ASC",
		newEntity:  newEntity,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction in ctx or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Columns returns the selected columns.
func (r *BaseCatalogRepo[T]) Columns() []string {
	return r.selectCols
}

func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// Create inserts entity and reads back server-assigned timestamps.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	now := r.now()
	for _, col := range []string{"created_at", "updated_at"} {
		if _, ok := data[col]; ok {
			data[col] = now
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		return postgres.TranslateError(err, r.entityName)
	}
	return nil
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"id": entityID}, entityID.String(), "")
}

func (r *BaseCatalogRepo[T]) getOne(ctx context.Context, where squirrel.Sqlizer, key any, suffix string) (T, error) {
	entity := r.newEntity()
	q := r.baseSelect().Where(where)
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		var zero T
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.entityName, key)
		}
		return zero, postgres.TranslateError(err, r.entityName)
	}
	return entity, nil
}

// UpdateColumns sets cols of the row with entityID and scans the stored row
// back into entity.
func (r *BaseCatalogRepo[T]) UpdateColumns(ctx context.Context, entityID id.ID, entity T, cols map[string]any) error {
	q := r.Builder().
		Update(r.tableName).
		SetMap(cols).
		Where(squirrel.Eq{"id": entityID}).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(r.entityName, entityID.String())
		}
		return postgres.TranslateError(err, r.entityName)
	}
	return nil
}

// Delete performs physical removal. References from other tables surface as CONFLICT.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, r.entityName)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// List retrieves a page of entities ordered by name.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List restricted by where; a nil where lists everything.
func (r *BaseCatalogRepo[T]) ListWhere(ctx context.Context, filter domain.ListFilter, where squirrel.Sqlizer) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	result := domain.ListResult[T]{Items: []T{}, Limit: filter.Limit, Offset: filter.Offset}

	q := r.baseSelect()
	if where != nil {
		q = q.Where(where)
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.TranslateError(err, r.entityName)
	}

	q = q.OrderBy(r.orderBy).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, postgres.TranslateError(err, r.entityName)
	}
	return result, nil
}

// Exists checks if an entity with entityID is stored.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Suffix(")")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, postgres.TranslateError(err, r.entityName)
	}
	return exists, nil
}
