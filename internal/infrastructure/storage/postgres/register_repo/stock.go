// Package register_repo provides PostgreSQL implementations for the stock
// ledger and the pricing matrix.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/registers/stock"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	productsTable       = "products"
	branchProductsTable = "branch_products"
)

var movementColumns = []string{
	"id", "recorder_type", "recorder_ref", "branch_id",
	"product_id", "quantity", "balance", "recorded_at",
}

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository. Main stock lives on products.stock,
// branch stock on branch_products.stock.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txm,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *StockRepo) productStockQuery(productID id.ID, lock bool) squirrel.SelectBuilder {
	q := r.builder.Select("stock").From(productsTable).Where(squirrel.Eq{"id": productID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *StockRepo) branchStockQuery(productID, branchID id.ID, lock bool) squirrel.SelectBuilder {
	q := r.builder.Select("stock").From(branchProductsTable).
		Where(squirrel.Eq{"product_id": productID, "branch_id": branchID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *StockRepo) scanStock(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var qty int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// GetProductStock returns main stock.
func (r *StockRepo) GetProductStock(ctx context.Context, productID id.ID) (int64, error) {
	qty, err := r.scanStock(ctx, r.productStockQuery(productID, false))
	if err != nil {
		return 0, r.productErr(err, productID)
	}
	return qty, nil
}

// GetProductStockForUpdate returns main stock and locks the product row.
func (r *StockRepo) GetProductStockForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	qty, err := r.scanStock(ctx, r.productStockQuery(productID, true))
	if err != nil {
		return 0, r.productErr(err, productID)
	}
	return qty, nil
}

func (r *StockRepo) productErr(err error, productID id.ID) error {
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound("product", productID.String())
	}
	return postgres.TranslateError(err, "product")
}

// SetProductStock overwrites main stock.
func (r *StockRepo) SetProductStock(ctx context.Context, productID id.ID, qty int64) error {
	q := r.builder.Update(productsTable).
		Set("stock", qty).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID})
	return r.execOne(ctx, q, "product", productID.String())
}

// GetBranchStock returns branch stock; a missing row reads as 0.
func (r *StockRepo) GetBranchStock(ctx context.Context, productID, branchID id.ID) (int64, error) {
	qty, err := r.scanStock(ctx, r.branchStockQuery(productID, branchID, false))
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, nil
		}
		return 0, postgres.TranslateError(err, "branch_product")
	}
	return qty, nil
}

// GetBranchStockForUpdate locks the branch row when it exists.
func (r *StockRepo) GetBranchStockForUpdate(ctx context.Context, productID, branchID id.ID) (int64, bool, error) {
	qty, err := r.scanStock(ctx, r.branchStockQuery(productID, branchID, true))
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, false, nil
		}
		return 0, false, postgres.TranslateError(err, "branch_product")
	}
	return qty, true, nil
}

// EnsureBranchProduct creates the branch row at zero stock when absent.
// Unknown products or branches fail the foreign keys and surface as CONFLICT.
func (r *StockRepo) EnsureBranchProduct(ctx context.Context, productID, branchID id.ID) error {
	q := r.builder.Insert(branchProductsTable).
		Columns("product_id", "branch_id", "stock").
		Values(productID, branchID, 0).
		Suffix("ON CONFLICT (product_id, branch_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, "branch_product")
	}
	return nil
}

// SetBranchStock overwrites branch stock.
func (r *StockRepo) SetBranchStock(ctx context.Context, productID, branchID id.ID, qty int64) error {
	q := r.builder.Update(branchProductsTable).
		Set("stock", qty).
		Where(squirrel.Eq{"product_id": productID, "branch_id": branchID})
	return r.execOne(ctx, q, "branch_product", productID.String())
}

func (r *StockRepo) execOne(ctx context.Context, q squirrel.UpdateBuilder, entity, key string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, entity)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, key)
	}
	return nil
}

// CreateMovements appends journal rows. Inside a transaction the rows go
// over COPY; outside one a multi-row INSERT is used.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementRow(m))
		}
		if _, err := postgres.NewBatchInserter(r.txManager).CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	sql, args, err := r.insertMovementsQuery(movements).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, "stock_movement")
	}
	return nil
}

func (r *StockRepo) insertMovementsQuery(movements []stock.Movement) squirrel.InsertBuilder {
	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(movementRow(m)...)
	}
	return q
}

func movementRow(m stock.Movement) []any {
	return []any{
		m.ID, string(m.RecorderType), m.RecorderRef, m.BranchID,
		m.ProductID, m.Quantity, m.Balance, m.RecordedAt,
	}
}

// GetMovementsByRecorder lists journal rows of one document in insertion order.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, rec stock.Recorder) ([]stock.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_type": string(rec.Type), "recorder_ref": rec.Ref}).
		OrderBy("recorded_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []stock.Movement{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.TranslateError(err, "stock_movement")
	}
	return out, nil
}
