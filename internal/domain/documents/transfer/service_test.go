package transfer_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/app"
	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/registers/stock"
)

var transferDate = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func input(branchID id.ID, status transfer.Status, items ...transfer.Item) transfer.CreateInput {
	return transfer.CreateInput{
		BranchID:     branchID,
		TransferDate: transferDate,
		Status:       status,
		Items:        items,
	}
}

func TestTransferScenario(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Rice", 100)

	receipts, err := env.Purchases.Create(ctx, purchaseInput(env, p.ID, 20))
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(120), env.MainStock(t, p.ID))

	tr, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusReceived, transfer.Item{ProductID: p.ID, Quantity: 50}))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ST[0-9A-Z]{8}$`), tr.ReferenceCode)
	assert.Equal(t, env.Main.ID, tr.SourceBranchID)
	assert.Equal(t, int64(70), env.MainStock(t, p.ID))
	assert.Equal(t, int64(50), env.BranchStock(t, p.ID, env.Branch.ID))

	_, err = env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusReceived, transfer.Item{ProductID: p.ID, Quantity: 71}))
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(70), env.MainStock(t, p.ID))
	assert.Equal(t, int64(50), env.BranchStock(t, p.ID, env.Branch.ID))
	assert.Equal(t, int64(120), env.MainStock(t, p.ID)+env.BranchStock(t, p.ID, env.Branch.ID))
}

func TestCreate_PendingHasNoLedgerEffect(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Flour", 10)

	tr, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 10}))
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusPending, tr.Status)
	assert.Equal(t, int64(10), env.MainStock(t, p.ID))

	moves, err := env.Stock.Movements(ctx, stock.Recorder{Type: stock.RecorderTransfer, Ref: tr.ReferenceCode})
	require.NoError(t, err)
	assert.Empty(t, moves)

	require.NoError(t, env.Transfers.Delete(ctx, tr.ReferenceCode))
	assert.Equal(t, int64(10), env.MainStock(t, p.ID))

	_, err = env.Transfers.Get(ctx, tr.ReferenceCode)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_AvailabilityCheckedBeforeAnyWrite(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	a := env.Product(t, "Sugar", 10)
	b := env.Product(t, "Salt", 2)

	// pending transfers are checked too, even though they move nothing yet
	_, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending,
		transfer.Item{ProductID: a.ID, Quantity: 6},
		transfer.Item{ProductID: b.ID, Quantity: 1},
		transfer.Item{ProductID: a.ID, Quantity: 5},
	))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, a.ID.String(), appErr.Details["product_id"])

	res, err := env.Transfers.List(ctx, transfer.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestCreate_MultiLineReceivedMovesEveryLine(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	a := env.Product(t, "Tea", 8)
	b := env.Product(t, "Coffee", 5)

	tr, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusReceived,
		transfer.Item{ProductID: a.ID, Quantity: 3},
		transfer.Item{ProductID: b.ID, Quantity: 5},
	))
	require.NoError(t, err)
	require.Len(t, tr.Lines, 2)
	assert.Equal(t, 1, tr.Lines[0].LineNo)
	assert.Equal(t, 2, tr.Lines[1].LineNo)
	assert.Equal(t, int64(8), tr.TotalQuantity())

	assert.Equal(t, int64(5), env.MainStock(t, a.ID))
	assert.Equal(t, int64(0), env.MainStock(t, b.ID))
	assert.Equal(t, int64(3), env.BranchStock(t, a.ID, env.Branch.ID))
	assert.Equal(t, int64(5), env.BranchStock(t, b.ID, env.Branch.ID))
}

func TestCreate_Rejections(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Oil", 5)

	_, err := env.Transfers.Create(ctx, input(env.Main.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 1}))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.Transfers.Create(ctx, input(id.New(), transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 1}))
	assert.True(t, apperror.IsNotFound(err))

	_, err = env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: id.New(), Quantity: 1}))
	assert.True(t, apperror.IsNotFound(err))

	_, err = env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 0}))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.Transfers.Create(ctx, input(env.Branch.ID, "Shipped", transfer.Item{ProductID: p.ID, Quantity: 1}))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSetStatus_ByLineID(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Beans", 12)

	tr, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 12}))
	require.NoError(t, err)

	got, err := env.Transfers.SetStatus(ctx, tr.Lines[0].ID.String(), transfer.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, tr.ReferenceCode, got.ReferenceCode)
	assert.Equal(t, transfer.StatusReceived, got.Status)
	assert.Equal(t, int64(0), env.MainStock(t, p.ID))
	assert.Equal(t, int64(12), env.BranchStock(t, p.ID, env.Branch.ID))

	_, err = env.Transfers.SetStatus(ctx, tr.ReferenceCode, transfer.StatusReceived)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	err = env.Transfers.Delete(ctx, tr.ReferenceCode)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.Equal(t, int64(12), env.BranchStock(t, p.ID, env.Branch.ID))
}

func TestSetStatus_RecheckedWhenStockWasSpent(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Lentils", 10)
	other := env.NewBranch(t, "Hillside")

	first, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 8}))
	require.NoError(t, err)
	_, err = env.Transfers.Create(ctx, input(other.ID, transfer.StatusReceived, transfer.Item{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)

	_, err = env.Transfers.SetStatus(ctx, first.ReferenceCode, transfer.StatusReceived)
	assert.True(t, apperror.IsInsufficientStock(err))

	got, err := env.Transfers.Get(ctx, first.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusPending, got.Status)
	assert.Equal(t, int64(5), env.MainStock(t, p.ID))
	assert.Equal(t, int64(0), env.BranchStock(t, p.ID, env.Branch.ID))
}

func TestCreate_ReferenceCollisionRegenerates(t *testing.T) {
	codes := []string{"ST00000001", "ST00000001", "ST00000002"}
	next := 0
	env := apptest.New(t, apptest.WithDeps(func(d *app.Deps) {
		d.TransferOptions = []transfer.Option{transfer.WithCodeGenerator(func() (string, error) {
			code := codes[next]
			next++
			return code, nil
		})}
	}))
	ctx := context.Background()
	p := env.Product(t, "Corn", 4)

	first, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "ST00000001", first.ReferenceCode)
	assert.Equal(t, "ST00000002", second.ReferenceCode)
}

func TestList_ByDestination(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	p := env.Product(t, "Peas", 10)
	other := env.NewBranch(t, "Lakeside")

	_, err := env.Transfers.Create(ctx, input(env.Branch.ID, transfer.StatusPending, transfer.Item{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = env.Transfers.Create(ctx, input(other.ID, transfer.StatusReceived, transfer.Item{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	res, err := env.Transfers.List(ctx, transfer.ListFilter{DestinationBranchID: &other.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.TotalCount)
	assert.Equal(t, transfer.StatusReceived, res.Items[0].Status)
}
