package dto

import (
	"strconv"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/documents/purchase"
)

// CreatePurchaseRequest creates one purchase line per item.
type CreatePurchaseRequest struct {
	SupplierID   string                `json:"supplierId" binding:"required"`
	PurchaseDate string                `json:"purchaseDate" binding:"required"`
	Status       string                `json:"status" binding:"required"`
	Mode         string                `json:"mode" binding:"required"`
	PaymentMode  *string               `json:"paymentMode,omitempty"`
	Notes        string                `json:"notes,omitempty" binding:"max=2000"`
	Items        []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PurchaseItemRequest is one product line.
type PurchaseItemRequest struct {
	ProductID  string      `json:"productId" binding:"required"`
	Quantity   int64       `json:"quantity"`
	UnitPrice  types.Money `json:"unitPrice"`
	ExpiryDate *string     `json:"expiryDate,omitempty"`
}

// ToInput converts the request, reporting malformed ids and dates as field errors.
func (r *CreatePurchaseRequest) ToInput() (purchase.CreateInput, error) {
	supplierID, err := id.ParseField("supplier_id", r.SupplierID)
	if err != nil {
		return purchase.CreateInput{}, err
	}
	date, err := ParseDate("purchase_date", r.PurchaseDate)
	if err != nil {
		return purchase.CreateInput{}, err
	}

	in := purchase.CreateInput{
		SupplierID:   supplierID,
		PurchaseDate: date,
		Status:       purchase.Status(r.Status),
		Mode:         purchase.Mode(r.Mode),
		PaymentMode:  r.PaymentMode,
		Notes:        r.Notes,
		Items:        make([]purchase.Item, 0, len(r.Items)),
	}
	for i, item := range r.Items {
		prefix := "items[" + strconv.Itoa(i) + "]."
		productID, err := id.ParseField(prefix+"product_id", item.ProductID)
		if err != nil {
			return purchase.CreateInput{}, err
		}
		expiry, err := ParseOptionalDate(prefix+"expiry_date", item.ExpiryDate)
		if err != nil {
			return purchase.CreateInput{}, err
		}
		in.Items = append(in.Items, purchase.Item{
			ProductID:  productID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			ExpiryDate: expiry,
		})
	}
	return in, nil
}

// CreatePurchaseResponse lists the receipt numbers allocated, in item order.
type CreatePurchaseResponse struct {
	ReceiptNumbers []string `json:"receiptNumbers"`
}

// SetStatusRequest moves a document to a new status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PurchaseListQuery filters purchase listings.
type PurchaseListQuery struct {
	ListQuery
	SupplierID string `form:"supplierId"`
	ProductID  string `form:"productId"`
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// ToFilter converts the query.
func (q *PurchaseListQuery) ToFilter() (purchase.ListFilter, error) {
	f := purchase.ListFilter{ListFilter: q.Filter()}
	var err error
	if f.SupplierID, err = ParseOptionalID("supplierId", &q.SupplierID); err != nil {
		return f, err
	}
	if f.ProductID, err = ParseOptionalID("productId", &q.ProductID); err != nil {
		return f, err
	}
	if q.Status != "" {
		st := purchase.Status(q.Status)
		f.Status = &st
	}
	if f.From, err = ParseOptionalDate("from", &q.From); err != nil {
		return f, err
	}
	if f.To, err = ParseOptionalDate("to", &q.To); err != nil {
		return f, err
	}
	return f, nil
}

// PurchaseResponse is a purchase line with its computed total.
type PurchaseResponse struct {
	*purchase.Purchase
	PurchaseDate string      `json:"purchaseDate"`
	ExpiryDate   *string     `json:"expiryDate,omitempty"`
	Total        types.Money `json:"total"`
}

// FromPurchase builds the response view.
func FromPurchase(p *purchase.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		Purchase:     p,
		PurchaseDate: p.PurchaseDate.Format("2006-01-02"),
		Total:        p.Total(),
	}
	if p.ExpiryDate != nil {
		s := p.ExpiryDate.Format("2006-01-02")
		resp.ExpiryDate = &s
	}
	return resp
}
