package postgres

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inventra/internal/core/apperror"
)

// PostgreSQL error codes translated by TranslateError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgQueryCanceled       = "57014"
)

// TranslateError promotes driver errors to AppErrors. entity names the table's
// record kind for the error details. Errors it does not recognise pass through.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, nil).WithCause(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout(err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, constraintField(pgErr), "").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict(entity+" is referenced by other records").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		if stockCheckConstraints[pgErr.ConstraintName] {
			return (&apperror.AppError{
				Code:       apperror.CodeInsufficientStock,
				Message:    "Insufficient stock",
				HTTPStatus: http.StatusUnprocessableEntity,
			}).WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
		}
		return apperror.NewValidation(entity+" violates "+pgErr.ConstraintName).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgQueryCanceled:
		return apperror.NewTimeout(err)
	}
	return err
}

func constraintField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if field, ok := uniqueConstraintFields[pgErr.ConstraintName]; ok {
		return field
	}
	return pgErr.ConstraintName
}

// stockCheckConstraints are the non-negative stock backstops. Other CHECK
// violations are bad input.
var stockCheckConstraints = map[string]bool{
	"products_stock_check":        true,
	"branch_products_stock_check": true,
}

// uniqueConstraintFields names the business key behind each unique index.
var uniqueConstraintFields = map[string]string{
	"branches_name_key":                  "name",
	"price_types_name_key":               "name",
	"suppliers_name_key":                 "name",
	"products_name_key":                  "name",
	"products_barcode_key":               "barcode",
	"purchases_receipt_number_key":       "receipt_number",
	"stock_transfers_reference_line_key": "reference_code",
	"product_prices_pkey":                "price_type_id",
	"branch_products_pkey":               "branch_id",
	"expiry_dates_pkey":                  "expiry_date",
}
