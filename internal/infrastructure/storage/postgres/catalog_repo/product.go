package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	productTable       = "products"
	branchProductTable = "branch_products"
)

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, productTable, "product",
			func() *product.Product { return &product.Product{} }),
	}
}

// Update writes every attribute except stock, which belongs to the ledger.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	cols := postgres.StructToMap(p)
	for _, c := range []string{"id", "stock", "is_main", "created_at"} {
		delete(cols, c)
	}
	cols["updated_at"] = r.now()
	return r.UpdateColumns(ctx, p.ID, p, cols)
}

// UpsertBranchSettings creates the branch row at zero stock or updates its
// threshold and status. The stored stock is written back into bp.
func (r *ProductRepo) UpsertBranchSettings(ctx context.Context, bp *product.BranchProduct) error {
	sql, args, err := r.upsertBranchSettingsQuery(bp).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&bp.Stock); err != nil {
		return postgres.TranslateError(err, "branch_product")
	}
	return nil
}

func (r *ProductRepo) upsertBranchSettingsQuery(bp *product.BranchProduct) squirrel.InsertBuilder {
	return r.Builder().
		Insert(branchProductTable).
		Columns("product_id", "branch_id", "stock", "alert_threshold", "status").
		Values(bp.ProductID, bp.BranchID, 0, bp.AlertThreshold, bp.Status).
		Suffix("ON CONFLICT (product_id, branch_id) DO UPDATE SET " +
			"alert_threshold = EXCLUDED.alert_threshold, status = EXCLUDED.status " +
			"RETURNING stock")
}

// ListBranchProducts returns every branch row of productID ordered by branch.
func (r *ProductRepo) ListBranchProducts(ctx context.Context, productID id.ID) ([]product.BranchProduct, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[product.BranchProduct]()...).
		From(branchProductTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("branch_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []product.BranchProduct{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.TranslateError(err, "branch_product")
	}
	return out, nil
}
