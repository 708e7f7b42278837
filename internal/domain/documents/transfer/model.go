// Package transfer provides stock transfers from the main pool to a branch.
// A transfer is a group of lines sharing one reference code.
package transfer

import (
	"strconv"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/fsm"
	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Status of a transfer.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusReceived Status = "Received"
)

// Machine is the transfer transition table. Received is terminal.
var Machine = fsm.New("transfer", map[Status][]Status{
	StatusPending:  {StatusReceived},
	StatusReceived: nil,
})

// Line is one product moved by a transfer.
type Line struct {
	ID                  id.ID     `db:"id" json:"id"`
	ReferenceCode       string    `db:"reference_code" json:"referenceCode"`
	LineNo              int       `db:"line_no" json:"lineNo"`
	SourceBranchID      id.ID     `db:"source_branch_id" json:"sourceBranchId"`
	DestinationBranchID id.ID     `db:"destination_branch_id" json:"destinationBranchId"`
	ProductID           id.ID     `db:"product_id" json:"productId"`
	Quantity            int64     `db:"quantity" json:"quantity"`
	TransferDate        time.Time `db:"transfer_date" json:"transferDate"`
	Status              Status    `db:"status" json:"status"`
	Notes               string    `db:"notes" json:"notes"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// Transfer is the header view of a group of lines.
type Transfer struct {
	ReferenceCode       string    `json:"referenceCode"`
	SourceBranchID      id.ID     `json:"sourceBranchId"`
	DestinationBranchID id.ID     `json:"destinationBranchId"`
	TransferDate        time.Time `json:"transferDate"`
	Status              Status    `json:"status"`
	Notes               string    `json:"notes"`
	Lines               []Line    `json:"lines"`
}

// FromLines builds the header view. lines must be non-empty and share a reference.
func FromLines(lines []Line) *Transfer {
	first := lines[0]
	return &Transfer{
		ReferenceCode:       first.ReferenceCode,
		SourceBranchID:      first.SourceBranchID,
		DestinationBranchID: first.DestinationBranchID,
		TransferDate:        first.TransferDate,
		Status:              first.Status,
		Notes:               first.Notes,
		Lines:               lines,
	}
}

// TotalQuantity sums line quantities.
func (t *Transfer) TotalQuantity() int64 {
	var total int64
	for _, l := range t.Lines {
		total += l.Quantity
	}
	return total
}

// Item is one line of a create request.
type Item struct {
	ProductID id.ID
	Quantity  int64
}

// CreateInput is a transfer create request.
type CreateInput struct {
	BranchID     id.ID
	TransferDate time.Time
	Status       Status
	Notes        string
	Items        []Item
}

// Validate checks the request shape.
func (in *CreateInput) Validate() error {
	if id.IsNil(in.BranchID) {
		return apperror.NewFieldValidation("branch_id", "destination branch is required")
	}
	if in.TransferDate.IsZero() {
		return apperror.NewFieldValidation("transfer_date", "transfer date is required")
	}
	if err := Machine.Validate("status", in.Status); err != nil {
		return err
	}
	if len(in.Items) == 0 {
		return apperror.NewFieldValidation("items", "at least one item is required")
	}
	for i, item := range in.Items {
		prefix := "items[" + strconv.Itoa(i) + "]."
		if id.IsNil(item.ProductID) {
			return apperror.NewFieldValidation(prefix+"product_id", "product is required")
		}
		if item.Quantity <= 0 {
			return apperror.NewFieldValidation(prefix+"quantity", "quantity must be positive")
		}
	}
	return nil
}

// ListFilter narrows transfer listings.
type ListFilter struct {
	domain.ListFilter
	DestinationBranchID *id.ID
	Status              *Status
}
