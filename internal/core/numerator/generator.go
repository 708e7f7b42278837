// Package numerator provides domain contracts for human-readable reference numbers.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator hands out counter values for numbered documents.
//
// Implementations must take the counter inside the transaction carried by
// ctx and hold its row lock until that transaction ends, so two concurrent
// callers never observe the same value.
type Generator interface {
	// NextNumber returns the next formatted number for cfg in period.
	NextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber moves the counter so the next call returns value+1
	// (for data migration).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
