package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/catalogs/product"
)

func TestCreate_OpeningStock(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	p, err := env.Products.Create(ctx, product.Input{Name: "  Rice  ", OpeningStock: 25, PurchasePrice: types.MustMoney("3")})
	require.NoError(t, err)
	assert.Equal(t, "Rice", p.Name)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.True(t, p.IsMain)
	assert.Equal(t, int64(25), env.MainStock(t, p.ID))

	_, err = env.Products.Create(ctx, product.Input{Name: "Negative", OpeningStock: -1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreate_BranchSettings(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	p, err := env.Products.Create(ctx, product.Input{
		Name:         "Cocoa",
		OpeningStock: 5,
		Branches: []product.BranchSettings{
			{BranchID: env.Main.ID, AlertThreshold: 99},
			{
				BranchID:       env.Branch.ID,
				AlertThreshold: 3,
				Prices:         []product.PriceInput{{PriceTypeID: env.Retail.ID, Price: types.MustMoney("6.75")}},
			},
		},
	})
	require.NoError(t, err)

	rows, err := env.Products.BranchProducts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, env.Branch.ID, rows[0].BranchID)
	assert.Equal(t, int64(3), rows[0].AlertThreshold)
	assert.Equal(t, int64(0), rows[0].Stock)
	assert.Equal(t, domain.StatusActive, rows[0].Status)

	prices, err := env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.True(t, prices[0].Price.Equal(types.MustMoney("6.75")))
}

func TestCreate_FailureRollsBackEverything(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	_, err := env.Products.Create(ctx, product.Input{
		Name:         "Ghost",
		OpeningStock: 5,
		Branches:     []product.BranchSettings{{BranchID: id.New()}},
	})
	assert.True(t, apperror.IsNotFound(err))

	res, err := env.Products.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
	assert.Empty(t, env.Store.AuditRecords("product"))
}

func TestCreate_DuplicateBarcode(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	code := "4006381333931"

	_, err := env.Products.Create(ctx, product.Input{Name: "Pen", Barcode: &code})
	require.NoError(t, err)
	_, err = env.Products.Create(ctx, product.Input{Name: "Pencil", Barcode: &code})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestUpdate_LeavesStockAlone(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Soda", 12)

	got, err := env.Products.Update(ctx, p.ID, product.Input{
		Name:           "Soda 330ml",
		PurchasePrice:  types.MustMoney("0.80"),
		AlertThreshold: 4,
		OpeningStock:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Soda 330ml", got.Name)
	assert.Equal(t, int64(12), env.MainStock(t, p.ID))

	stored, err := env.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.AlertThreshold)
	assert.Equal(t, int64(12), stored.Stock)

	_, err = env.Products.Update(ctx, id.New(), product.Input{Name: "x"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_BranchSettingsValidation(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Gum", 0)

	_, err := env.Products.Update(ctx, p.ID, product.Input{
		Name:     "Gum",
		Branches: []product.BranchSettings{{BranchID: env.Branch.ID, Status: "paused"}},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "branches[0].status", appErr.Details["field"])
}
