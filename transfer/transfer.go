// Package transfer describes value movements the ledger hands to external
// transfer providers after a bookkeeping change commits.
//
// The ledger never moves funds itself. A Transfer is an intent: providers
// execute it, and a failed execution never rolls back the bookkeeping.
package transfer

import (
	"fmt"
	"time"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/types"
)

// Kind distinguishes inbound from outbound movements.
type Kind string

const (
	// KindContribution moves funds from a donor into custody.
	KindContribution Kind = "contribution"
	// KindDisbursement moves funds from custody to a beneficiary.
	KindDisbursement Kind = "disbursement"
)

// Transfer is a value-transfer intent.
type Transfer struct {
	ID          id.TransferID   `json:"id"`
	OperationID id.OperationID  `json:"operation_id"`
	Kind        Kind            `json:"kind"`
	From        types.Principal `json:"from"`
	To          types.Principal `json:"to"`
	Amount      types.Amount    `json:"amount"`
	CauseID     cause.ID        `json:"cause_id"`
	// Reference names the ledger record that produced the transfer,
	// e.g. "contribution:7" or "withdrawal:3".
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Reference formats a record reference for Transfer.Reference.
func Reference(kind Kind, recordID fmt.Stringer) string {
	switch kind {
	case KindDisbursement:
		return "withdrawal:" + recordID.String()
	default:
		return "contribution:" + recordID.String()
	}
}

// Inbound builds a donor -> custody transfer.
func Inbound(ref id.TransferID, op id.OperationID, donor, custody types.Principal, amount types.Amount, causeID cause.ID, recordID fmt.Stringer, at time.Time) *Transfer {
	return &Transfer{
		ID:          ref,
		OperationID: op,
		Kind:        KindContribution,
		From:        donor,
		To:          custody,
		Amount:      amount,
		CauseID:     causeID,
		Reference:   Reference(KindContribution, recordID),
		CreatedAt:   at.UTC(),
	}
}

// Outbound builds a custody -> beneficiary transfer.
func Outbound(ref id.TransferID, op id.OperationID, custody, beneficiary types.Principal, amount types.Amount, causeID cause.ID, recordID fmt.Stringer, at time.Time) *Transfer {
	return &Transfer{
		ID:          ref,
		OperationID: op,
		Kind:        KindDisbursement,
		From:        custody,
		To:          beneficiary,
		Amount:      amount,
		CauseID:     causeID,
		Reference:   Reference(KindDisbursement, recordID),
		CreatedAt:   at.UTC(),
	}
}
