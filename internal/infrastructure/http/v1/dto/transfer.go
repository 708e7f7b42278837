package dto

import (
	"strconv"

	"inventra/internal/core/id"
	"inventra/internal/domain/documents/transfer"
)

// CreateTransferRequest moves products from the main pool to a branch.
type CreateTransferRequest struct {
	BranchID     string                `json:"branchId" binding:"required"`
	TransferDate string                `json:"transferDate" binding:"required"`
	Status       string                `json:"status" binding:"required"`
	Notes        string                `json:"notes,omitempty" binding:"max=2000"`
	Items        []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

// TransferItemRequest is one product line.
type TransferItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// ToInput converts the request, reporting malformed ids and dates as field errors.
func (r *CreateTransferRequest) ToInput() (transfer.CreateInput, error) {
	branchID, err := id.ParseField("branch_id", r.BranchID)
	if err != nil {
		return transfer.CreateInput{}, err
	}
	date, err := ParseDate("transfer_date", r.TransferDate)
	if err != nil {
		return transfer.CreateInput{}, err
	}

	in := transfer.CreateInput{
		BranchID:     branchID,
		TransferDate: date,
		Status:       transfer.Status(r.Status),
		Notes:        r.Notes,
		Items:        make([]transfer.Item, 0, len(r.Items)),
	}
	for i, item := range r.Items {
		productID, err := id.ParseField("items["+strconv.Itoa(i)+"].product_id", item.ProductID)
		if err != nil {
			return transfer.CreateInput{}, err
		}
		in.Items = append(in.Items, transfer.Item{ProductID: productID, Quantity: item.Quantity})
	}
	return in, nil
}

// TransferListQuery filters transfer listings.
type TransferListQuery struct {
	ListQuery
	BranchID string `form:"branchId"`
	Status   string `form:"status"`
}

// ToFilter converts the query.
func (q *TransferListQuery) ToFilter() (transfer.ListFilter, error) {
	f := transfer.ListFilter{ListFilter: q.Filter()}
	var err error
	if f.DestinationBranchID, err = ParseOptionalID("branchId", &q.BranchID); err != nil {
		return f, err
	}
	if q.Status != "" {
		st := transfer.Status(q.Status)
		f.Status = &st
	}
	return f, nil
}

// TransferResponse is the header view with the total quantity moved.
type TransferResponse struct {
	*transfer.Transfer
	TransferDate  string `json:"transferDate"`
	TotalQuantity int64  `json:"totalQuantity"`
}

// FromTransfer builds the response view.
func FromTransfer(t *transfer.Transfer) TransferResponse {
	return TransferResponse{
		Transfer:      t,
		TransferDate:  t.TransferDate.Format("2006-01-02"),
		TotalQuantity: t.TotalQuantity(),
	}
}
