// Package cause defines beneficiary campaigns that collect contributions.
package cause

import (
	"strconv"

	"github.com/xraph/fundledger/types"
)

// ID identifies a cause. Ids are assigned sequentially from 1 and never reused.
type ID uint32

// String implements fmt.Stringer.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Cause is a beneficiary campaign accumulating contributions.
type Cause struct {
	types.Entity
	ID           ID              `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TotalRaised  types.Amount    `json:"total_raised"`
	TargetAmount types.Amount    `json:"target_amount"`
	IsActive     bool            `json:"is_active"`
	Beneficiary  types.Principal `json:"beneficiary"`
}

// Covers reports whether the current balance can fund amount.
func (c *Cause) Covers(amount types.Amount) bool {
	return c.TotalRaised.Covers(amount)
}

// Funded reports whether the target has been reached. The target is
// informational and never caps contributions.
func (c *Cause) Funded() bool {
	return c.TargetAmount.IsPositive() && c.TotalRaised >= c.TargetAmount
}

// Clone returns a copy that shares no state with c.
func (c *Cause) Clone() *Cause {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
