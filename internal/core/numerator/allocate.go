package numerator

import (
	"context"

	"inventra/internal/core/apperror"
	"inventra/internal/core/tx"
	"inventra/pkg/logger"
)

// Allocate mints a token with next and persists it with insert.
//
// The store's unique index decides whether a token is free: insert runs under
// a savepoint, and a duplicate-key failure rolls back to it and retries with a
// fresh token, at most attempts times. next runs outside the savepoint so a
// consumed counter value is not handed out again.
func Allocate(
	ctx context.Context,
	txm tx.Manager,
	attempts int,
	next func(ctx context.Context) (string, error),
	insert func(ctx context.Context, token string) error,
) (string, error) {
	if attempts <= 0 {
		attempts = MaxAllocationAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		token, err := next(ctx)
		if err != nil {
			return "", err
		}

		err = txm.RunInSavepoint(ctx, func(ctx context.Context) error {
			return insert(ctx, token)
		})
		if err == nil {
			return token, nil
		}
		if !apperror.IsDuplicate(err) {
			return "", err
		}

		logger.Warn(ctx, "reference collision, regenerating", "token", token, "attempt", attempt)
	}

	return "", apperror.NewConflict("could not allocate a unique reference").
		WithDetail("attempts", attempts)
}
