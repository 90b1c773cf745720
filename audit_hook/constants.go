package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionLedgerInitialized = "ledger.initialized"

	// Cause actions
	ActionCauseCreated     = "cause.created"
	ActionCauseActivated   = "cause.activated"
	ActionCauseDeactivated = "cause.deactivated"

	// Contribution actions
	ActionContributionRecorded = "contribution.recorded"

	// Withdrawal actions
	ActionWithdrawalRequested = "withdrawal.requested"
	ActionWithdrawalApproved  = "withdrawal.approved"
	ActionWithdrawalSettled   = "withdrawal.settled"

	// Transfer actions
	ActionTransferFailed = "transfer.failed"

	// Rejections
	ActionOperationRejected = "operation.rejected"
)

// Resource constants for audit events.
const (
	ResourceLedger       = "ledger"
	ResourceCause        = "cause"
	ResourceContribution = "contribution"
	ResourceWithdrawal   = "withdrawal"
	ResourceTransfer     = "transfer"
	ResourceOperation    = "operation"
)

// Category constants for audit events.
const (
	CategoryAdmin     = "admin"
	CategoryFunding   = "funding"
	CategoryPayout    = "payout"
	CategoryAccess    = "access"
	CategoryIntegrity = "integrity"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
