// Package types provides common types used across the fund ledger.
package types

import (
	"fmt"
	"math"
	"strconv"
)

// Amount is a signed quantity of the ledger's asset in its smallest unit.
// All arithmetic is integer-only.
//
// The ledger tracks a single asset, so unlike a multi-currency money type an
// Amount carries no currency code. Use Format to render it in major units.
type Amount int64

// Zero is the zero Amount.
const Zero Amount = 0

// Arithmetic operations

// Add returns a+other and reports whether the sum overflowed.
func (a Amount) Add(other Amount) (Amount, bool) {
	if (other > 0 && a > math.MaxInt64-other) || (other < 0 && a < math.MinInt64-other) {
		return 0, false
	}
	return a + other, true
}

// Sub returns a-other and reports whether the difference overflowed.
func (a Amount) Sub(other Amount) (Amount, bool) {
	if (other < 0 && a > math.MaxInt64+other) || (other > 0 && a < math.MinInt64+other) {
		return 0, false
	}
	return a - other, true
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Covers reports whether a balance of a can fund a debit of other.
func (a Amount) Covers(other Amount) bool { return other <= a }

// Formatting methods

// Format returns the amount in major units with the given number of decimal
// places. Format(7) renders 12345678 as "1.2345678".
func (a Amount) Format(decimals int) string {
	if decimals <= 0 {
		return strconv.FormatInt(int64(a), 10)
	}

	divisor := uint64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	// Handle sign separately; MinInt64 has no positive counterpart in int64.
	isNegative := a < 0
	abs := uint64(a)
	if isNegative {
		abs = uint64(-(a + 1)) + 1
	}

	result := fmt.Sprintf("%d.%0*d", abs/divisor, decimals, abs%divisor)
	if isNegative {
		return "-" + result
	}
	return result
}

// String returns the amount in base units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Sum adds the values, reporting false on overflow.
func Sum(values ...Amount) (Amount, bool) {
	var total Amount
	for _, v := range values {
		var ok bool
		if total, ok = total.Add(v); !ok {
			return 0, false
		}
	}
	return total, true
}
