// Package contribution defines immutable receipts of funds committed to a cause.
package contribution

import (
	"strconv"
	"time"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/types"
)

// ID identifies a contribution.
type ID uint32

// String implements fmt.Stringer.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Contribution is an append-only record of a donor crediting a cause.
// It is written once and never mutated.
type Contribution struct {
	types.Entity
	ID         ID              `json:"id"`
	Donor      types.Principal `json:"donor"`
	CauseID    cause.ID        `json:"cause_id"`
	Amount     types.Amount    `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
	TransferID id.TransferID   `json:"transfer_id"`
}

// Total sums the amounts of cs. The boolean is false on overflow.
func Total(cs []*Contribution) (types.Amount, bool) {
	sum := types.Zero
	for _, c := range cs {
		var ok bool
		if sum, ok = sum.Add(c.Amount); !ok {
			return 0, false
		}
	}
	return sum, true
}
