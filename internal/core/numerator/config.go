// Package numerator provides domain contracts for human-readable reference numbers.
package numerator

import (
	"fmt"
	"time"
)

// ResetPeriod decides how often a counter restarts from 1.
type ResetPeriod string

const (
	ResetDaily   ResetPeriod = "day"
	ResetMonthly ResetPeriod = "month"
	ResetYearly  ResetPeriod = "year"
	ResetNever   ResetPeriod = "never"
)

// MaxAllocationAttempts bounds the regenerate-and-retry loop in Allocate.
const MaxAllocationAttempts = 5

// Config holds numbering configuration for counter-based numbers.
type Config struct {
	// Prefix added to all numbers (e.g., "RCP")
	Prefix string

	// DateLayout is a time layout inserted between prefix and counter.
	// Empty means no date part.
	DateLayout string

	// PadWidth is the minimum counter width (default 4)
	PadWidth int

	// ResetPeriod controls the counter key
	ResetPeriod ResetPeriod
}

// ReceiptConfig numbers purchase receipts as RCP<yy><mm><dd><NNNN>,
// restarting the counter every day.
func ReceiptConfig() Config {
	return Config{
		Prefix:      "RCP",
		DateLayout:  "060102",
		PadWidth:    4,
		ResetPeriod: ResetDaily,
	}
}

// Key returns the allocator row key for period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetDaily:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("20060102"))
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("200601"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders counter value n for period.
func (c Config) Format(period time.Time, n int64) string {
	pad := c.PadWidth
	if pad <= 0 {
		pad = 4
	}
	if c.DateLayout == "" {
		return fmt.Sprintf("%s%0*d", c.Prefix, pad, n)
	}
	return fmt.Sprintf("%s%s%0*d", c.Prefix, period.Format(c.DateLayout), pad, n)
}
