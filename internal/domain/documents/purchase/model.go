// Package purchase provides purchase intake: supplier purchase lines, each
// under its own receipt number, crediting main stock when received.
package purchase

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/fsm"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
)

// Status of a purchase line.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusOrdered  Status = "Ordered"
	StatusReceived Status = "Received"
)

// Machine is the purchase transition table. Received is terminal.
var Machine = fsm.New("purchase", map[Status][]Status{
	StatusPending:  {StatusReceived},
	StatusOrdered:  {StatusReceived},
	StatusReceived: nil,
})

// Mode is how a purchase is settled.
type Mode string

const (
	ModePaid     Mode = "Paid"
	ModeOnCredit Mode = "On Credit"
)

// Purchase is one purchase line keyed by its receipt number.
type Purchase struct {
	ID            id.ID           `db:"id" json:"id"`
	ReceiptNumber string          `db:"receipt_number" json:"receiptNumber"`
	SupplierID    id.ID           `db:"supplier_id" json:"supplierId"`
	PurchaseDate  time.Time       `db:"purchase_date" json:"purchaseDate"`
	Status        Status          `db:"status" json:"status"`
	Mode          Mode            `db:"mode" json:"mode"`
	PaymentMode   *string         `db:"payment_mode" json:"paymentMode,omitempty"`
	ProductID     id.ID           `db:"product_id" json:"productId"`
	Quantity      int64           `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unitPrice"`
	ExpiryDate    *time.Time      `db:"expiry_date" json:"expiryDate,omitempty"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// Total returns quantity times unit price.
func (p *Purchase) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.Quantity))
}

func (p *Purchase) auditState() map[string]any {
	state := map[string]any{
		"supplier_id": p.SupplierID.String(),
		"product_id":  p.ProductID.String(),
		"status":      string(p.Status),
		"mode":        string(p.Mode),
		"quantity":    p.Quantity,
		"unit_price":  p.UnitPrice.String(),
	}
	if p.ExpiryDate != nil {
		state["expiry_date"] = p.ExpiryDate.Format(time.DateOnly)
	}
	return state
}

// ExpiryRecord notes an expiry date for a product, tagged with the receipt
// that introduced it.
type ExpiryRecord struct {
	ProductID     id.ID     `db:"product_id" json:"productId"`
	ExpiryDate    time.Time `db:"expiry_date" json:"expiryDate"`
	ReceiptNumber string    `db:"receipt_number" json:"receiptNumber"`
}

// Item is one line of a create request.
type Item struct {
	ProductID  id.ID
	Quantity   int64
	UnitPrice  types.Money
	ExpiryDate *time.Time
}

// CreateInput is a purchase create request.
type CreateInput struct {
	SupplierID   id.ID
	PurchaseDate time.Time
	Status       Status
	Mode         Mode
	PaymentMode  *string
	Notes        string
	Items        []Item
}

// Validate checks the request shape. today is the caller's current date.
func (in *CreateInput) Validate(today time.Time) error {
	if id.IsNil(in.SupplierID) {
		return apperror.NewFieldValidation("supplier_id", "supplier is required")
	}
	if in.PurchaseDate.IsZero() {
		return apperror.NewFieldValidation("purchase_date", "purchase date is required")
	}
	if err := Machine.Validate("status", in.Status); err != nil {
		return err
	}

	switch in.Mode {
	case ModePaid:
		if in.PaymentMode == nil || strings.TrimSpace(*in.PaymentMode) == "" {
			return apperror.NewFieldValidation("payment_mode", "payment mode is required for paid purchases")
		}
	case ModeOnCredit:
		in.PaymentMode = nil
	default:
		return apperror.NewFieldValidation("mode", "mode must be Paid or On Credit").
			WithDetail("value", string(in.Mode))
	}

	if len(in.Items) == 0 {
		return apperror.NewFieldValidation("items", "at least one item is required")
	}

	for i, item := range in.Items {
		field := func(name string) string { return "items[" + strconv.Itoa(i) + "]." + name }

		if id.IsNil(item.ProductID) {
			return apperror.NewFieldValidation(field("product_id"), "product is required")
		}
		if item.Quantity <= 0 {
			return apperror.NewFieldValidation(field("quantity"), "quantity must be positive")
		}
		if types.IsNegative(item.UnitPrice) {
			return apperror.NewFieldValidation(field("unit_price"), "unit price must not be negative")
		}
		if item.ExpiryDate != nil && !dateAfter(*item.ExpiryDate, today) {
			return apperror.NewFieldValidation(field("expiry_date"), "expiry date must be in the future").
				WithDetail("value", item.ExpiryDate.Format(time.DateOnly))
		}
	}
	return nil
}

// ListFilter narrows purchase listings.
type ListFilter struct {
	domain.ListFilter
	SupplierID *id.ID
	ProductID  *id.ID
	Status     *Status
	From       *time.Time
	To         *time.Time
}

// dateAfter compares calendar dates, ignoring time of day.
func dateAfter(a, b time.Time) bool {
	return truncateDay(a).After(truncateDay(b))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
