// Package stock provides the stock ledger: the main pool held on the product
// row and one pool per branch held on branch_products.
package stock

import (
	"time"

	"inventra/internal/core/id"
)

// Pool selects which stock field a ledger operation touches.
// The zero value is the main pool.
type Pool struct {
	BranchID id.ID
}

// Main returns the main stock pool.
func Main() Pool { return Pool{} }

// Branch returns the pool of branchID.
func Branch(branchID id.ID) Pool { return Pool{BranchID: branchID} }

// IsMain reports whether p is the main pool.
func (p Pool) IsMain() bool { return id.IsNil(p.BranchID) }

func (p Pool) String() string {
	if p.IsMain() {
		return "main"
	}
	return p.BranchID.String()
}

// RecorderType names the document kind that caused a movement.
type RecorderType string

const (
	RecorderOpening  RecorderType = "opening"
	RecorderPurchase RecorderType = "purchase"
	RecorderTransfer RecorderType = "transfer"
)

// Recorder identifies the document a movement belongs to.
type Recorder struct {
	Type RecorderType
	Ref  string
}

// Movement is one journal row. Quantity is signed: credits are positive.
type Movement struct {
	ID           id.ID        `db:"id" json:"id"`
	RecorderType RecorderType `db:"recorder_type" json:"recorderType"`
	RecorderRef  string       `db:"recorder_ref" json:"recorderRef"`
	BranchID     *id.ID       `db:"branch_id" json:"branchId,omitempty"`
	ProductID    id.ID        `db:"product_id" json:"productId"`
	Quantity     int64        `db:"quantity" json:"quantity"`
	Balance      int64        `db:"balance" json:"balance"`
	RecordedAt   time.Time    `db:"recorded_at" json:"recordedAt"`
}

// Pool returns the pool the movement touched.
func (m Movement) Pool() Pool {
	if m.BranchID == nil {
		return Main()
	}
	return Branch(*m.BranchID)
}

// Demand is a quantity required from a pool.
type Demand struct {
	ProductID id.ID
	Quantity  int64
}
