package transfer_test

import (
	"time"

	"inventra/internal/app/apptest"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/documents/purchase"
)

func purchaseInput(env *apptest.Env, productID id.ID, qty int64) purchase.CreateInput {
	return purchase.CreateInput{
		SupplierID:   env.Supplier.ID,
		PurchaseDate: time.Now().UTC(),
		Status:       purchase.StatusReceived,
		Mode:         purchase.ModeOnCredit,
		Items: []purchase.Item{
			{ProductID: productID, Quantity: qty, UnitPrice: types.MustMoney("1.00")},
		},
	}
}
