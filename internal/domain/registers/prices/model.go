// Package prices provides the pricing matrix: one price per
// (product, branch, price type).
package prices

import (
	"time"

	"github.com/shopspring/decimal"

	"inventra/internal/core/id"
)

// Price is a quotation for a product at a branch under a price type.
type Price struct {
	ProductID   id.ID           `db:"product_id" json:"productId"`
	BranchID    id.ID           `db:"branch_id" json:"branchId"`
	PriceTypeID id.ID           `db:"price_type_id" json:"priceTypeId"`
	Price       decimal.Decimal `db:"price" json:"price"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Submission is a price posted for a branch from the product form.
type Submission struct {
	BranchID    id.ID
	PriceTypeID id.ID
	Price       decimal.Decimal
}
