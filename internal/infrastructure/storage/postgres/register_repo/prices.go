package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/infrastructure/storage/postgres"
)

const productPricesTable = "product_prices"

var _ prices.Repository = (*PriceRepo)(nil)

// PriceRepo implements prices.Repository over product_prices, keyed by
// (product_id, branch_id, price_type_id).
type PriceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewPriceRepo creates a new price repository.
func NewPriceRepo(txm *postgres.TxManager) *PriceRepo {
	return &PriceRepo{
		txManager: txm,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[prices.Price](),
	}
}

// Upsert inserts p or overwrites the price of the existing row.
func (r *PriceRepo) Upsert(ctx context.Context, p *prices.Price) error {
	sql, args, err := r.upsertQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, "price")
	}
	return nil
}

func (r *PriceRepo) upsertQuery(p *prices.Price) squirrel.InsertBuilder {
	return r.builder.Insert(productPricesTable).
		SetMap(postgres.StructToMap(p)).
		Suffix("ON CONFLICT (product_id, branch_id, price_type_id) DO UPDATE SET " +
			"price = EXCLUDED.price, updated_at = EXCLUDED.updated_at")
}

// ListByProductBranch returns every price-type row for the pair.
func (r *PriceRepo) ListByProductBranch(ctx context.Context, productID, branchID id.ID) ([]prices.Price, error) {
	q := r.builder.Select(r.columns...).
		From(productPricesTable).
		Where(squirrel.Eq{"product_id": productID, "branch_id": branchID}).
		OrderBy("price_type_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []prices.Price{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.TranslateError(err, "price")
	}
	return out, nil
}
