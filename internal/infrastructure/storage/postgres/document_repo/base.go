// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"inventra/internal/core/apperror"
	"inventra/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo holds what document repositories share: the transaction
// manager, the table and the statement builder.
type BaseDocumentRepo struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo(txm *postgres.TxManager, tableName, entityName string) BaseDocumentRepo {
	return BaseDocumentRepo{txManager: txm, tableName: tableName, entityName: entityName}
}

// Builder returns a new squirrel builder.
func (r BaseDocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r BaseDocumentRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// exec runs q and reports NOT_FOUND under key when no row was touched.
func (r BaseDocumentRepo) exec(ctx context.Context, q squirrel.Sqlizer, key string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, r.entityName)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, key)
	}
	return nil
}

func (r BaseDocumentRepo) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, postgres.TranslateError(err, r.entityName)
	}
	return total, nil
}
