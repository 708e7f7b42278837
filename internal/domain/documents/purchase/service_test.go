package purchase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"inventra/internal/app"
	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/types"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/domain/registers/stock"
)

var today = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newEnv(t *testing.T, opts ...purchase.Option) *apptest.Env {
	t.Helper()
	opts = append([]purchase.Option{purchase.WithClock(func() time.Time { return today })}, opts...)
	return apptest.New(t, apptest.WithDeps(func(d *app.Deps) {
		d.PurchaseOptions = opts
	}))
}

func paid() *string {
	s := "Cash"
	return &s
}

func input(env *apptest.Env, status purchase.Status, items ...purchase.Item) purchase.CreateInput {
	return purchase.CreateInput{
		SupplierID:   env.Supplier.ID,
		PurchaseDate: today,
		Status:       status,
		Mode:         purchase.ModePaid,
		PaymentMode:  paid(),
		Items:        items,
	}
}

func item(p *product.Product, qty int64) purchase.Item {
	return purchase.Item{ProductID: p.ID, Quantity: qty, UnitPrice: types.MustMoney("2.00")}
}

func TestCreate_ReceivedCreditsMainOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	a := env.Product(t, "Rice", 10)
	b := env.Product(t, "Pasta", 0)

	receipts, err := env.Purchases.Create(ctx, input(env, purchase.StatusReceived, item(a, 5), item(b, 3)))
	require.NoError(t, err)
	assert.Equal(t, []string{"RCP2610190001", "RCP2610190002"}, receipts)

	assert.Equal(t, int64(15), env.MainStock(t, a.ID))
	assert.Equal(t, int64(3), env.MainStock(t, b.ID))

	moves, err := env.Stock.Movements(ctx, stock.Recorder{Type: stock.RecorderPurchase, Ref: receipts[0]})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, int64(5), moves[0].Quantity)
}

func TestCreate_PendingAndOrderedLeaveStock(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Oats", 4)

	for _, status := range []purchase.Status{purchase.StatusPending, purchase.StatusOrdered} {
		_, err := env.Purchases.Create(ctx, input(env, status, item(p, 9)))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), env.MainStock(t, p.ID))
}

func TestCreate_FailureDiscardsAllItems(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Corn", 0)

	in := input(env, purchase.StatusReceived, item(p, 5), purchase.Item{ProductID: id.New(), Quantity: 1})
	_, err := env.Purchases.Create(ctx, in)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, 1, appErr.Details["item"])

	assert.Equal(t, int64(0), env.MainStock(t, p.ID))
	list, err := env.Purchases.List(ctx, purchase.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestCreate_Validation(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Milk", 0)
	yesterday := today.AddDate(0, 0, -1)
	laterToday := today.Add(3 * time.Hour)

	tests := []struct {
		name  string
		edit  func(in *purchase.CreateInput)
		field string
	}{
		{"paid without payment mode", func(in *purchase.CreateInput) { in.PaymentMode = nil }, "payment_mode"},
		{"unknown mode", func(in *purchase.CreateInput) { in.Mode = "Barter" }, "mode"},
		{"unknown status", func(in *purchase.CreateInput) { in.Status = "Lost" }, "status"},
		{"no items", func(in *purchase.CreateInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *purchase.CreateInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(in *purchase.CreateInput) { in.Items[0].UnitPrice = types.MustMoney("-1") }, "items[0].unit_price"},
		{"expired", func(in *purchase.CreateInput) { in.Items[0].ExpiryDate = &yesterday }, "items[0].expiry_date"},
		{"expires today", func(in *purchase.CreateInput) { in.Items[0].ExpiryDate = &laterToday }, "items[0].expiry_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(env, purchase.StatusPending, item(p, 1))
			tt.edit(&in)
			_, err := env.Purchases.Create(ctx, in)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestCreate_OnCreditDropsPaymentMode(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Eggs", 0)

	in := input(env, purchase.StatusOrdered, item(p, 12))
	in.Mode = purchase.ModeOnCredit
	receipts, err := env.Purchases.Create(ctx, in)
	require.NoError(t, err)

	got, err := env.Purchases.Get(ctx, receipts[0])
	require.NoError(t, err)
	assert.Equal(t, purchase.ModeOnCredit, got.Mode)
	assert.Nil(t, got.PaymentMode)
	assert.True(t, got.Total().Equal(types.MustMoney("24")))
}

func TestCreate_ExpiryRecordedOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Yoghurt", 0)
	expiry := today.AddDate(0, 1, 0)

	first := item(p, 1)
	first.ExpiryDate = &expiry
	second := item(p, 2)
	later := expiry.Add(5 * time.Hour)
	second.ExpiryDate = &later

	receipts, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, first, second))
	require.NoError(t, err)

	records := env.Store.ExpiryRecords(p.ID)
	require.Len(t, records, 1)
	assert.Equal(t, receipts[0], records[0].ReceiptNumber)
}

func TestSetStatus_ReceivedIsTerminal(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Soap", 1)

	receipts, err := env.Purchases.Create(ctx, input(env, purchase.StatusOrdered, item(p, 6)))
	require.NoError(t, err)

	got, err := env.Purchases.SetStatus(ctx, receipts[0], purchase.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, got.Status)
	assert.Equal(t, int64(7), env.MainStock(t, p.ID))

	_, err = env.Purchases.SetStatus(ctx, receipts[0], purchase.StatusReceived)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	_, err = env.Purchases.SetStatus(ctx, receipts[0], purchase.StatusPending)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	assert.Equal(t, int64(7), env.MainStock(t, p.ID))
}

func TestSetStatus_UnknownReceipt(t *testing.T) {
	env := newEnv(t)
	_, err := env.Purchases.SetStatus(context.Background(), "RCP0000000000", purchase.StatusReceived)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Candles", 0)

	pending, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, item(p, 2)))
	require.NoError(t, err)
	ordered, err := env.Purchases.Create(ctx, input(env, purchase.StatusOrdered, item(p, 3)))
	require.NoError(t, err)
	received, err := env.Purchases.Create(ctx, input(env, purchase.StatusReceived, item(p, 4)))
	require.NoError(t, err)
	assert.Equal(t, int64(4), env.MainStock(t, p.ID))

	err = env.Purchases.Delete(ctx, pending[0])
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	require.NoError(t, env.Purchases.Delete(ctx, ordered[0]))
	assert.Equal(t, int64(4), env.MainStock(t, p.ID))

	require.NoError(t, env.Purchases.Delete(ctx, received[0]))
	assert.Equal(t, int64(0), env.MainStock(t, p.ID))

	_, err = env.Purchases.Get(ctx, received[0])
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_ConsumedStockCannotBeReversed(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Lamp oil", 0)

	receipts, err := env.Purchases.Create(ctx, input(env, purchase.StatusReceived, item(p, 10)))
	require.NoError(t, err)
	require.NoError(t, env.Stock.Move(ctx, stock.Main(), stock.Branch(env.Branch.ID), p.ID, 6,
		stock.Recorder{Type: stock.RecorderTransfer, Ref: "ST00000001"}))

	err = env.Purchases.Delete(ctx, receipts[0])
	assert.True(t, apperror.HasCode(err, apperror.CodeStockReversalImpossible))

	assert.Equal(t, int64(4), env.MainStock(t, p.ID))
	got, err := env.Purchases.Get(ctx, receipts[0])
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, got.Status)
}

// Memstore serialises transactions behind one lock, so this checks the
// allocation contract only. The race between concurrent creates is held off
// by the sys_sequences row lock and the receipt_number unique index, which
// need a real database to exercise.
func TestCreate_ConcurrentReceiptsAreUnique(t *testing.T) {
	env := newEnv(t)
	p := env.Product(t, "Water", 0)
	const n = 16

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			receipts, err := env.Purchases.Create(context.Background(), input(env, purchase.StatusReceived, item(p, 1)))
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range receipts {
				if seen[r] {
					return fmt.Errorf("receipt %s handed out twice", r)
				}
				seen[r] = true
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, n)
	assert.Equal(t, int64(n), env.MainStock(t, p.ID))
}

func TestCreate_CollisionRetriesWithNextNumber(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.Product(t, "Vinegar", 0)

	first, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, item(p, 1)))
	require.NoError(t, err)
	require.Equal(t, "RCP2610190001", first[0])

	// rewind the counter so the next value collides with the stored receipt
	require.NoError(t, env.Store.SetNextNumber(ctx, numerator.ReceiptConfig(), today, 0))

	second, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, item(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "RCP2610190002", second[0])
}

func TestCreate_AllocationGivesUpAfterBoundedAttempts(t *testing.T) {
	gen := &numerator.MockGenerator{}
	env := apptest.New(t, apptest.WithDeps(func(d *app.Deps) {
		d.Numerator = gen
		d.PurchaseOptions = []purchase.Option{
			purchase.WithClock(func() time.Time { return today }),
			purchase.WithAllocationAttempts(3),
		}
	}))
	ctx := context.Background()
	p := env.Product(t, "Matches", 0)

	_, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, item(p, 1)))
	require.NoError(t, err)

	_, err = env.Purchases.Create(ctx, input(env, purchase.StatusReceived, item(p, 1)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, 3, appErr.Details["attempts"])
	assert.Equal(t, int64(0), env.MainStock(t, p.ID))
}

func TestList_Filters(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	a := env.Product(t, "Apples", 0)
	b := env.Product(t, "Pears", 0)

	_, err := env.Purchases.Create(ctx, input(env, purchase.StatusPending, item(a, 1), item(b, 1)))
	require.NoError(t, err)
	_, err = env.Purchases.Create(ctx, input(env, purchase.StatusReceived, item(a, 1)))
	require.NoError(t, err)

	status := purchase.StatusReceived
	res, err := env.Purchases.List(ctx, purchase.ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalCount)

	res, err = env.Purchases.List(ctx, purchase.ListFilter{ProductID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Greater(t, res.Items[0].ReceiptNumber, res.Items[1].ReceiptNumber)
}

func TestAudit_ActorRecorded(t *testing.T) {
	env := newEnv(t)
	p := env.Product(t, "Ink", 0)

	_, err := env.Purchases.Create(context.Background(), input(env, purchase.StatusPending, item(p, 1)))
	require.NoError(t, err)

	records := env.Store.AuditRecords("purchase")
	require.Len(t, records, 1)
	assert.Equal(t, "RCP2610190001", records[0].EntityKey)
}
