package prices_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/registers/prices"
)

type fakeCache struct {
	mu          sync.Mutex
	rows        map[[2]id.ID][]prices.Price
	gets        int
	hits        int
	invalidated [][2]id.ID
	versions    map[id.ID]int64
	failGet     bool

	// beforeSet runs between the store read and the cache write
	beforeSet func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{rows: make(map[[2]id.ID][]prices.Price), versions: make(map[id.ID]int64)}
}

func (c *fakeCache) Get(_ context.Context, productID, branchID id.ID) ([]prices.Price, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	rows, ok := c.rows[[2]id.ID{productID, branchID}]
	if ok {
		c.hits++
	}
	return rows, ok, nil
}

func (c *fakeCache) Version(_ context.Context, productID id.ID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[productID], nil
}

func (c *fakeCache) Set(_ context.Context, productID, branchID id.ID, version int64, rows []prices.Price) error {
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[productID] != version {
		return nil
	}
	c.rows[[2]id.ID{productID, branchID}] = rows
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, productID id.ID, branchIDs ...id.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[productID]++
	for _, b := range branchIDs {
		key := [2]id.ID{productID, b}
		delete(c.rows, key)
		c.invalidated = append(c.invalidated, key)
	}
	return nil
}

func TestUpsertPrice_OverwritesSingleRow(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Coffee", 0)

	_, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("10.00"))
	require.NoError(t, err)
	row, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("12.499"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", row.Price.String())

	assert.Equal(t, 1, env.Store.PriceRowCount())

	rows, err := env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Price.Equal(types.MustMoney("12.50")))
}

func TestUpsertPrice_MainBranchAllowed(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "Bread", 0)

	_, err := env.Prices.UpsertPrice(context.Background(), p.ID, env.Main.ID, env.Retail.ID, types.MustMoney("2.00"))
	require.NoError(t, err)
	assert.Equal(t, 1, env.Store.PriceRowCount())
}

func TestUpsertPrice_Rejections(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Jam", 0)

	tests := []struct {
		name     string
		product  id.ID
		branch   id.ID
		kind     id.ID
		price    string
		wantCode string
	}{
		{"negative price", p.ID, env.Branch.ID, env.Retail.ID, "-0.01", apperror.CodeValidation},
		{"unknown product", id.New(), env.Branch.ID, env.Retail.ID, "1", apperror.CodeNotFound},
		{"unknown branch", p.ID, id.New(), env.Retail.ID, "1", apperror.CodeNotFound},
		{"unknown price type", p.ID, env.Branch.ID, id.New(), "1", apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Prices.UpsertPrice(ctx, tt.product, tt.branch, tt.kind, types.MustMoney(tt.price))
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
	assert.Equal(t, 0, env.Store.PriceRowCount())
}

func TestApplyBranchPrices_SkipsMainBranch(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Honey", 0)

	touched, err := env.Prices.ApplyBranchPrices(ctx, p.ID, []prices.Submission{
		{BranchID: env.Main.ID, PriceTypeID: env.Retail.ID, Price: types.MustMoney("9")},
		{BranchID: env.Branch.ID, PriceTypeID: env.Retail.ID, Price: types.MustMoney("8")},
	})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{env.Branch.ID}, touched)
	assert.Equal(t, 1, env.Store.PriceRowCount())

	rows, err := env.Prices.ListPrices(ctx, p.ID, env.Main.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListPrices_ReadThroughCache(t *testing.T) {
	cache := newFakeCache()
	env := apptest.New(t, apptest.WithPriceCache(cache))
	ctx := context.Background()
	p := env.Product(t, "Butter", 0)

	_, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("3.10"))
	require.NoError(t, err)

	_, err = env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	rows, err := env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, cache.hits)

	_, err = env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("3.20"))
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, [2]id.ID{p.ID, env.Branch.ID})

	rows, err = env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	assert.True(t, rows[0].Price.Equal(types.MustMoney("3.20")))
}

func TestListPrices_CacheFailureFallsBackToStore(t *testing.T) {
	cache := newFakeCache()
	cache.failGet = true
	env := apptest.New(t, apptest.WithPriceCache(cache))
	ctx := context.Background()
	p := env.Product(t, "Cheese", 0)

	_, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("7"))
	require.NoError(t, err)

	rows, err := env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProductForm_InvalidatesAfterCommit(t *testing.T) {
	cache := newFakeCache()
	env := apptest.New(t, apptest.WithPriceCache(cache))
	ctx := context.Background()

	wholesale := pricetype.NewPriceType("Wholesale", "")
	require.NoError(t, env.PriceTypes.Create(ctx, wholesale))

	p, err := env.Products.Create(ctx, product.Input{
		Name: "Yoghurt",
		Branches: []product.BranchSettings{{
			BranchID: env.Branch.ID,
			Prices: []product.PriceInput{
				{PriceTypeID: env.Retail.ID, Price: types.MustMoney("1.50")},
				{PriceTypeID: wholesale.ID, Price: types.MustMoney("1.20")},
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]id.ID{{p.ID, env.Branch.ID}}, cache.invalidated)
	assert.Equal(t, 2, env.Store.PriceRowCount())
}

func TestListPrices_StaleReadNotCachedAfterUpsert(t *testing.T) {
	cache := newFakeCache()
	env := apptest.New(t, apptest.WithPriceCache(cache))
	ctx := context.Background()
	p := env.Product(t, "Honey", 0)

	_, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("4.00"))
	require.NoError(t, err)

	// the upsert lands after the reader loaded 4.00 but before it caches
	cache.beforeSet = func() {
		_, err := env.Prices.UpsertPrice(ctx, p.ID, env.Branch.ID, env.Retail.ID, types.MustMoney("4.50"))
		require.NoError(t, err)
	}
	rows, err := env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	assert.True(t, rows[0].Price.Equal(types.MustMoney("4.00")))

	rows, err = env.Prices.ListPrices(ctx, p.ID, env.Branch.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Price.Equal(types.MustMoney("4.50")))
}
