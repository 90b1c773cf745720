// Package plugin provides an extensible plugin system for the fund ledger.
// Plugins hook into ledger lifecycle events after each operation commits.
package plugin

import (
	"context"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *fundledger.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnLedgerInitialized is called once the administrator is configured.
type OnLedgerInitialized interface {
	Plugin
	OnLedgerInitialized(ctx context.Context, admin types.Principal) error
}

// ──────────────────────────────────────────────────
// Cause hooks
// ──────────────────────────────────────────────────

// OnCauseCreated is called when a new cause is added.
type OnCauseCreated interface {
	Plugin
	OnCauseCreated(ctx context.Context, c *cause.Cause) error
}

// OnCauseStatusChanged is called after a cause is activated or deactivated.
type OnCauseStatusChanged interface {
	Plugin
	OnCauseStatusChanged(ctx context.Context, c *cause.Cause) error
}

// ──────────────────────────────────────────────────
// Funds hooks
// ──────────────────────────────────────────────────

// OnContributionRecorded is called after a contribution is booked.
type OnContributionRecorded interface {
	Plugin
	OnContributionRecorded(ctx context.Context, c *contribution.Contribution) error
}

// OnWithdrawalRequested is called when a beneficiary files a request.
type OnWithdrawalRequested interface {
	Plugin
	OnWithdrawalRequested(ctx context.Context, r *withdrawal.Request) error
}

// OnWithdrawalApproved is called when the admin approves a request.
type OnWithdrawalApproved interface {
	Plugin
	OnWithdrawalApproved(ctx context.Context, r *withdrawal.Request) error
}

// OnWithdrawalSettled is called after a request is paid and its cause debited.
type OnWithdrawalSettled interface {
	Plugin
	OnWithdrawalSettled(ctx context.Context, r *withdrawal.Request) error
}

// OnOperationRejected is called when an operation fails. op is the operation
// name, e.g. "donate".
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, op string, err error) error
}

// ──────────────────────────────────────────────────
// Value transfer
// ──────────────────────────────────────────────────

// TransferProvider moves real value for a committed bookkeeping change.
// A failure is reported through OnTransferFailed and never rolls back the
// ledger.
type TransferProvider interface {
	Plugin
	Transfer(ctx context.Context, t *transfer.Transfer) error
}

// OnTransferFailed is called when a TransferProvider returns an error.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, t *transfer.Transfer, err error) error
}

// ──────────────────────────────────────────────────
// Operation correlation
// ──────────────────────────────────────────────────

type operationKey struct{}

// WithOperationID attaches the id of the ledger operation being dispatched.
func WithOperationID(ctx context.Context, op id.OperationID) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationIDFrom returns the operation id attached by WithOperationID.
func OperationIDFrom(ctx context.Context) (id.OperationID, bool) {
	op, ok := ctx.Value(operationKey{}).(id.OperationID)
	return op, ok && !op.IsNil()
}
