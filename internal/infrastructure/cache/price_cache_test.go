package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/registers/prices"
)

func newTestCache(t *testing.T, opts ...Option) (*PriceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPriceCache(client, opts...), mr
}

func TestPriceCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	productID, branchID := id.New(), id.New()

	_, ok, err := c.Get(ctx, productID, branchID)
	require.NoError(t, err)
	assert.False(t, ok)

	rows := []prices.Price{{
		ProductID:   productID,
		BranchID:    branchID,
		PriceTypeID: id.New(),
		Price:       types.MustMoney("12.50"),
		UpdatedAt:   time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}}
	require.NoError(t, c.Set(ctx, productID, branchID, 0, rows))

	got, ok, err := c.Get(ctx, productID, branchID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(types.MustMoney("12.5")))
	assert.Equal(t, rows[0].PriceTypeID, got[0].PriceTypeID)
}

func TestPriceCache_EmptyRowsAreAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	productID, branchID := id.New(), id.New()

	require.NoError(t, c.Set(ctx, productID, branchID, 0, nil))
	got, ok, err := c.Get(ctx, productID, branchID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestPriceCache_TTL(t *testing.T) {
	c, mr := newTestCache(t, WithTTL(time.Minute))
	ctx := context.Background()
	productID, branchID := id.New(), id.New()

	require.NoError(t, c.Set(ctx, productID, branchID, 0, []prices.Price{}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, productID, branchID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriceCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t, WithKeyPrefix("test:prices:"))
	ctx := context.Background()
	productID, other := id.New(), id.New()
	b1, b2 := id.New(), id.New()

	for _, b := range []id.ID{b1, b2} {
		require.NoError(t, c.Set(ctx, productID, b, 0, []prices.Price{}))
		require.NoError(t, c.Set(ctx, other, b, 0, []prices.Price{}))
	}

	require.NoError(t, c.Invalidate(ctx, productID, b1))
	assert.False(t, mr.Exists(c.key(productID, b1)))
	assert.True(t, mr.Exists(c.key(productID, b2)))

	require.NoError(t, c.Invalidate(ctx, productID))
	assert.False(t, mr.Exists(c.key(productID, b2)))
	assert.True(t, mr.Exists(c.key(other, b1)), "other products keep their entries")
	assert.True(t, mr.Exists("test:prices:"+other.String()+":"+b2.String()))
}

func TestPriceCache_SetDroppedAfterInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	productID, branchID := id.New(), id.New()
	stale := []prices.Price{{ProductID: productID, BranchID: branchID, PriceTypeID: id.New(), Price: types.MustMoney("1")}}

	version, err := c.Version(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	// a writer commits and invalidates while the reader is loading
	require.NoError(t, c.Invalidate(ctx, productID, branchID))

	require.NoError(t, c.Set(ctx, productID, branchID, version, stale))
	assert.False(t, mr.Exists(c.key(productID, branchID)))

	current, err := c.Version(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)

	require.NoError(t, c.Set(ctx, productID, branchID, current, stale))
	_, ok, err := c.Get(ctx, productID, branchID)
	require.NoError(t, err)
	assert.True(t, ok)
}
