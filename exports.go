package fundledger

import (
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// Re-export common types so callers rarely need the leaf packages.

// Amount is re-exported from the types package.
type Amount = types.Amount

// Principal is re-exported from the types package.
type Principal = types.Principal

// Entity is re-exported from the types package.
type Entity = types.Entity

// CauseID is re-exported from the cause package.
type CauseID = cause.ID

// ContributionID is re-exported from the contribution package.
type ContributionID = contribution.ID

// WithdrawalID is re-exported from the withdrawal package.
type WithdrawalID = withdrawal.ID

// Withdrawal request states.
const (
	StatePending  = withdrawal.StatePending
	StateApproved = withdrawal.StateApproved
	StateSettled  = withdrawal.StateSettled
)

// Re-export constructors and helpers.
var (
	Zero      = types.Zero
	Sum       = types.Sum
	NewEntity = types.NewEntity
)
