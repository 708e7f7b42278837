package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/apperror"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	purchaseTable = "purchases"
	expiryTable   = "expiry_dates"
)

var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	BaseDocumentRepo
	columns []string
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, purchaseTable, "purchase"),
		columns:          postgres.ExtractDBColumns[purchase.Purchase](),
	}
}

// Insert stores p. A taken receipt number fails purchases_receipt_number_key.
func (r *PurchaseRepo) Insert(ctx context.Context, p *purchase.Purchase) error {
	sql, args, err := r.Builder().Insert(purchaseTable).SetMap(postgres.StructToMap(p)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, r.entityName)
	}
	return nil
}

func (r *PurchaseRepo) GetByReceipt(ctx context.Context, receipt string) (*purchase.Purchase, error) {
	return r.get(ctx, receipt, false)
}

// GetByReceiptForUpdate locks the purchase row.
func (r *PurchaseRepo) GetByReceiptForUpdate(ctx context.Context, receipt string) (*purchase.Purchase, error) {
	return r.get(ctx, receipt, true)
}

func (r *PurchaseRepo) getQuery(receipt string, lock bool) squirrel.SelectBuilder {
	q := r.Builder().Select(r.columns...).From(purchaseTable).
		Where(squirrel.Eq{"receipt_number": receipt})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *PurchaseRepo) get(ctx context.Context, receipt string, lock bool) (*purchase.Purchase, error) {
	sql, args, err := r.getQuery(receipt, lock).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p purchase.Purchase
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, receipt)
		}
		return nil, postgres.TranslateError(err, r.entityName)
	}
	return &p, nil
}

func (r *PurchaseRepo) UpdateStatus(ctx context.Context, receipt string, status purchase.Status, updatedAt time.Time) error {
	q := r.Builder().Update(purchaseTable).
		Set("status", status).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"receipt_number": receipt})
	return r.exec(ctx, q, receipt)
}

func (r *PurchaseRepo) Delete(ctx context.Context, receipt string) error {
	q := r.Builder().Delete(purchaseTable).Where(squirrel.Eq{"receipt_number": receipt})
	return r.exec(ctx, q, receipt)
}

func (r *PurchaseRepo) applyFilter(q squirrel.SelectBuilder, f purchase.ListFilter) squirrel.SelectBuilder {
	if f.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *f.SupplierID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"purchase_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"purchase_date": *f.To})
	}
	return q
}

// List returns purchases matching f, newest receipt first.
func (r *PurchaseRepo) List(ctx context.Context, f purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	page := f.ListFilter.Normalize()
	result := domain.ListResult[*purchase.Purchase]{Items: []*purchase.Purchase{}, Limit: page.Limit, Offset: page.Offset}

	total, err := r.count(ctx, r.applyFilter(r.Builder().Select("COUNT(*)").From(purchaseTable), f))
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	q := r.applyFilter(r.Builder().Select(r.columns...).From(purchaseTable), f).
		OrderBy("receipt_number DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, postgres.TranslateError(err, r.entityName)
	}
	return result, nil
}

// EnsureExpiry stores rec unless (product, expiry date) is already recorded.
func (r *PurchaseRepo) EnsureExpiry(ctx context.Context, rec purchase.ExpiryRecord) (bool, error) {
	q := r.Builder().Insert(expiryTable).
		SetMap(postgres.StructToMap(rec)).
		Suffix("ON CONFLICT (product_id, expiry_date) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.TranslateError(err, "expiry_date")
	}
	return tag.RowsAffected() == 1, nil
}
