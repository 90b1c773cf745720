// Package withdrawal defines a beneficiary's claim against a cause balance and
// the Pending -> Approved -> Settled state machine it moves through.
package withdrawal

import (
	"strconv"
	"time"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/types"
)

// ID identifies a withdrawal request.
type ID uint32

// String implements fmt.Stringer.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// State is derived from the IsApproved and IsPaid flags.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateSettled  State = "settled"
	// StateInvalid marks a paid-but-unapproved record, which the ledger never
	// produces.
	StateInvalid State = "invalid"
)

// Request is a withdrawal request.
type Request struct {
	types.Entity
	ID                   ID              `json:"id"`
	CauseID              cause.ID        `json:"cause_id"`
	Requester            types.Principal `json:"requester"`
	Amount               types.Amount    `json:"amount"`
	Description          string          `json:"description"`
	IsApproved           bool            `json:"is_approved"`
	IsPaid               bool            `json:"is_paid"`
	Timestamp            time.Time       `json:"timestamp"`
	ApprovedAt           *time.Time      `json:"approved_at,omitempty"`
	SettledAt            *time.Time      `json:"settled_at,omitempty"`
	SettlementTransferID id.TransferID   `json:"settlement_transfer_id"`
}

// State returns the lifecycle state encoded by the two flags.
func (r *Request) State() State {
	switch {
	case r.IsPaid && r.IsApproved:
		return StateSettled
	case r.IsPaid:
		return StateInvalid
	case r.IsApproved:
		return StateApproved
	default:
		return StatePending
	}
}

// Flags returns the approval and payment flags that encode s. Unknown
// states map to pending.
func Flags(s State) (approved, paid bool) {
	switch s {
	case StateApproved:
		return true, false
	case StateSettled:
		return true, true
	case StateInvalid:
		return false, true
	default:
		return false, false
	}
}

// CanApprove reports whether the request is still pending.
func (r *Request) CanApprove() bool { return r.State() == StatePending }

// CanSettle reports whether the request is approved and unpaid.
func (r *Request) CanSettle() bool { return r.State() == StateApproved }

// Approve latches the approval flag.
func (r *Request) Approve(at time.Time) {
	at = at.UTC()
	r.IsApproved = true
	r.ApprovedAt = &at
	r.Touch(at)
}

// Settle marks the request paid.
func (r *Request) Settle(at time.Time, transferID id.TransferID) {
	at = at.UTC()
	r.IsPaid = true
	r.SettledAt = &at
	r.SettlementTransferID = transferID
	r.Touch(at)
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ApprovedAt != nil {
		t := *r.ApprovedAt
		cp.ApprovedAt = &t
	}
	if r.SettledAt != nil {
		t := *r.SettledAt
		cp.SettledAt = &t
	}
	return &cp
}
