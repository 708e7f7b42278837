package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
)

func TestStockQueries_LockOnlyWhenAsked(t *testing.T) {
	repo := NewStockRepo(nil)
	productID, branchID := id.New(), id.New()

	sql, args, err := repo.productStockQuery(productID, true).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT stock FROM products WHERE id = $1 FOR UPDATE", sql)
	assert.Equal(t, []any{productID.String()}, args)

	sql, _, err = repo.productStockQuery(productID, false).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "FOR UPDATE")

	sql, args, err = repo.branchStockQuery(productID, branchID, true).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT stock FROM branch_products WHERE branch_id = $1 AND product_id = $2 FOR UPDATE", sql)
	assert.Equal(t, []any{branchID.String(), productID.String()}, args)
}

func TestInsertMovementsQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	branchID := id.New()
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	movements := []stock.Movement{
		{ID: id.New(), RecorderType: stock.RecorderTransfer, RecorderRef: "ST0000ABCD", ProductID: id.New(), Quantity: -20, Balance: 100, RecordedAt: now},
		{ID: id.New(), RecorderType: stock.RecorderTransfer, RecorderRef: "ST0000ABCD", BranchID: &branchID, ProductID: id.New(), Quantity: 20, Balance: 20, RecordedAt: now},
	}

	sql, args, err := repo.insertMovementsQuery(movements).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO reg_stock_movements (id,recorder_type,recorder_ref,branch_id,product_id,quantity,balance,recorded_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8),($9,$10,$11,$12,$13,$14,$15,$16)",
		sql)
	require.Len(t, args, 16)
	assert.Equal(t, "transfer", args[1])
	assert.Equal(t, int64(-20), args[5])
}

func TestPriceUpsertQuery(t *testing.T) {
	repo := NewPriceRepo(nil)
	p := &prices.Price{
		ProductID:   id.New(),
		BranchID:    id.New(),
		PriceTypeID: id.New(),
		Price:       types.MustMoney("12.50"),
		UpdatedAt:   time.Now().UTC(),
	}

	sql, args, err := repo.upsertQuery(p).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO product_prices (branch_id,price,price_type_id,product_id,updated_at) VALUES ($1,$2,$3,$4,$5) "+
			"ON CONFLICT (product_id, branch_id, price_type_id) DO UPDATE SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at",
		sql)
	assert.Len(t, args, 5)
}
