// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// --- Pagination ---

// ListQuery contains pagination parameters.
type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the query to a domain filter.
func (q ListQuery) Filter() domain.ListFilter {
	return domain.ListFilter{Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult copies a domain page.
func FromListResult[T any](res domain.ListResult[T]) ListResponse[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset}
}

// --- Common responses ---

// IDResponse contains created entity ID.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Binding ---

// BindError converts a gin binding failure into a VALIDATION_ERROR. Validator
// failures point at the first offending field.
func BindError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fieldPath(fe.Namespace())
		return apperror.NewFieldValidation(field, field+" "+describe(fe)).
			WithDetail("rule", fe.Tag())
	}
	return apperror.NewValidation("invalid request body").WithCause(err)
}

// fieldPath drops the struct name from a validator namespace and
// snake-cases each segment: "CreatePurchaseRequest.Items[0].UnitPrice"
// becomes "items[0].unit_price".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && isLowerOrDigit(s[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLowerOrDigit(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return "is invalid"
	}
}

// --- Parsing helpers ---

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, apperror.NewFieldValidation(field, "must be a date in YYYY-MM-DD format").WithCause(err)
	}
	return t, nil
}

// ParseOptionalDate is ParseDate for optional fields.
func ParseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseOptionalID is id.ParseField for optional fields.
func ParseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	v, err := id.ParseField(field, *s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func indexed(name string, i int, field string) string {
	return name + "[" + strconv.Itoa(i) + "]." + field
}
