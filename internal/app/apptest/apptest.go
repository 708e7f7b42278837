// Package apptest builds an engine over the in-memory store for tests.
package apptest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"inventra/internal/app"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/infrastructure/storage/memstore"
)

// Env is a seeded engine: a main branch, one regular branch, a supplier and
// a retail price type.
type Env struct {
	*app.Services
	Store    *memstore.Store
	Main     *branch.Branch
	Branch   *branch.Branch
	Supplier *supplier.Supplier
	Retail   *pricetype.PriceType
}

// Option customises the engine before it is built.
type Option func(*app.Deps)

// WithPriceCache plugs a price cache.
func WithPriceCache(c prices.Cache) Option {
	return func(d *app.Deps) { d.PriceCache = c }
}

// WithDeps edits the dependencies directly.
func WithDeps(fn func(d *app.Deps)) Option {
	return Option(fn)
}

// New builds a seeded engine.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	deps := app.Deps{
		Repos:     Repositories(store),
		TxManager: store,
		Numerator: store,
		Audit:     store,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc := app.NewServices(deps)

	main, err := svc.Branches.EnsureMain(ctx, "Main Store")
	require.NoError(t, err)

	b := branch.NewBranch("Riverside", "12 River Rd")
	require.NoError(t, svc.Branches.Create(ctx, b))

	sp := supplier.NewSupplier("Acme Wholesale", "555-0100")
	require.NoError(t, svc.Suppliers.Create(ctx, sp))

	retail := pricetype.NewPriceType("Retail", "shelf price")
	require.NoError(t, svc.PriceTypes.Create(ctx, retail))

	return &Env{
		Services: svc,
		Store:    store,
		Main:     main,
		Branch:   b,
		Supplier: sp,
		Retail:   retail,
	}
}

// Repositories exposes the store as engine repositories.
func Repositories(s *memstore.Store) app.Repositories {
	return app.Repositories{
		Branches:   s.Branches(),
		PriceTypes: s.PriceTypes(),
		Suppliers:  s.Suppliers(),
		Products:   s.Products(),
		Stock:      s.Stock(),
		Prices:     s.Prices(),
		Purchases:  s.Purchases(),
		Transfers:  s.Transfers(),
	}
}

// Product creates a product with opening main stock.
func (e *Env) Product(t testing.TB, name string, opening int64) *product.Product {
	t.Helper()
	p, err := e.Products.Create(context.Background(), product.Input{
		Name:          name,
		PurchasePrice: types.MustMoney("4.50"),
		OpeningStock:  opening,
	})
	require.NoError(t, err)
	return p
}

// NewBranch creates another regular branch.
func (e *Env) NewBranch(t testing.TB, name string) *branch.Branch {
	t.Helper()
	b := branch.NewBranch(name, "")
	require.NoError(t, e.Branches.Create(context.Background(), b))
	return b
}

// MainStock reads main stock, failing the test on error.
func (e *Env) MainStock(t testing.TB, productID id.ID) int64 {
	t.Helper()
	qty, err := e.Stock.MainStock(context.Background(), productID)
	require.NoError(t, err)
	return qty
}

// BranchStock reads branch stock, failing the test on error.
func (e *Env) BranchStock(t testing.TB, productID, branchID id.ID) int64 {
	t.Helper()
	qty, err := e.Stock.BranchStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	return qty
}
