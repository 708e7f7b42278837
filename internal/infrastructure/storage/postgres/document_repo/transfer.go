package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/infrastructure/storage/postgres"
)

const transferTable = "stock_transfers"

var _ transfer.Repository = (*TransferRepo)(nil)

// TransferRepo implements transfer.Repository. A transfer is stored as one
// row per line sharing a reference code.
type TransferRepo struct {
	BaseDocumentRepo
	columns []string
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txm *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, transferTable, "transfer"),
		columns:          postgres.ExtractDBColumns[transfer.Line](),
	}
}

// InsertLines stores every line in one statement.
func (r *TransferRepo) InsertLines(ctx context.Context, lines []transfer.Line) error {
	if len(lines) == 0 {
		return nil
	}
	sql, args, err := r.insertLinesQuery(lines).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, r.entityName)
	}
	return nil
}

func (r *TransferRepo) insertLinesQuery(lines []transfer.Line) squirrel.InsertBuilder {
	q := r.Builder().Insert(transferTable).Columns(r.columns...)
	for i := range lines {
		row := postgres.StructToMap(&lines[i])
		values := make([]any, 0, len(r.columns))
		for _, c := range r.columns {
			values = append(values, row[c])
		}
		q = q.Values(values...)
	}
	return q
}

func (r *TransferRepo) GetByReference(ctx context.Context, reference string) ([]transfer.Line, error) {
	return r.getLines(ctx, reference, false)
}

// GetByReferenceForUpdate locks every line of the transfer.
func (r *TransferRepo) GetByReferenceForUpdate(ctx context.Context, reference string) ([]transfer.Line, error) {
	return r.getLines(ctx, reference, true)
}

func (r *TransferRepo) linesQuery(reference string, lock bool) squirrel.SelectBuilder {
	q := r.Builder().Select(r.columns...).From(transferTable).
		Where(squirrel.Eq{"reference_code": reference}).
		OrderBy("line_no")
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *TransferRepo) getLines(ctx context.Context, reference string, lock bool) ([]transfer.Line, error) {
	sql, args, err := r.linesQuery(reference, lock).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []transfer.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.TranslateError(err, r.entityName)
	}
	if len(lines) == 0 {
		return nil, apperror.NewNotFound(r.entityName, reference)
	}
	return lines, nil
}

// GetReferenceByLineID resolves a line id to its reference code.
func (r *TransferRepo) GetReferenceByLineID(ctx context.Context, lineID id.ID) (string, error) {
	sql, args, err := r.Builder().Select("reference_code").From(transferTable).
		Where(squirrel.Eq{"id": lineID}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var reference string
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&reference); err != nil {
		if pgxscan.NotFound(err) {
			return "", apperror.NewNotFound(r.entityName, lineID.String())
		}
		return "", postgres.TranslateError(err, r.entityName)
	}
	return reference, nil
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, reference string, status transfer.Status, updatedAt time.Time) error {
	q := r.Builder().Update(transferTable).
		Set("status", status).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"reference_code": reference})
	return r.exec(ctx, q, reference)
}

func (r *TransferRepo) Delete(ctx context.Context, reference string) error {
	q := r.Builder().Delete(transferTable).Where(squirrel.Eq{"reference_code": reference})
	return r.exec(ctx, q, reference)
}

func (r *TransferRepo) applyFilter(q squirrel.SelectBuilder, f transfer.ListFilter) squirrel.SelectBuilder {
	if f.DestinationBranchID != nil {
		q = q.Where(squirrel.Eq{"destination_branch_id": *f.DestinationBranchID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	return q
}

// pageQuery selects one page of reference codes, newest transfer first.
func (r *TransferRepo) pageQuery(f transfer.ListFilter, page domain.ListFilter) squirrel.SelectBuilder {
	return r.applyFilter(r.Builder().Select("reference_code").From(transferTable), f).
		GroupBy("reference_code").
		OrderBy("MIN(created_at) DESC", "reference_code").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))
}

// List returns transfer headers with their lines, newest first.
func (r *TransferRepo) List(ctx context.Context, f transfer.ListFilter) (domain.ListResult[*transfer.Transfer], error) {
	page := f.ListFilter.Normalize()
	result := domain.ListResult[*transfer.Transfer]{Items: []*transfer.Transfer{}, Limit: page.Limit, Offset: page.Offset}

	total, err := r.count(ctx, r.applyFilter(r.Builder().Select("COUNT(DISTINCT reference_code)").From(transferTable), f))
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	sql, args, err := r.pageQuery(f, page).ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	var refs []string
	if err := pgxscan.Select(ctx, r.querier(ctx), &refs, sql, args...); err != nil {
		return result, postgres.TranslateError(err, r.entityName)
	}
	if len(refs) == 0 {
		return result, nil
	}

	sql, args, err = r.Builder().Select(r.columns...).From(transferTable).
		Where(squirrel.Eq{"reference_code": refs}).
		OrderBy("reference_code", "line_no").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	var lines []transfer.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return result, postgres.TranslateError(err, r.entityName)
	}

	byRef := make(map[string][]transfer.Line, len(refs))
	for _, l := range lines {
		byRef[l.ReferenceCode] = append(byRef[l.ReferenceCode], l)
	}
	for _, ref := range refs {
		if group := byRef[ref]; len(group) > 0 {
			result.Items = append(result.Items, transfer.FromLines(group))
		}
	}
	return result, nil
}
