// Package audithook bridges ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any audit product. Callers inject a RecorderFunc adapter at wiring time.
// Every event carries a fresh audit id and, when the ledger tagged the
// context, the id of the operation that produced it.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/plugin"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnLedgerInitialized    = (*Extension)(nil)
	_ plugin.OnCauseCreated         = (*Extension)(nil)
	_ plugin.OnCauseStatusChanged   = (*Extension)(nil)
	_ plugin.OnContributionRecorded = (*Extension)(nil)
	_ plugin.OnWithdrawalRequested  = (*Extension)(nil)
	_ plugin.OnWithdrawalApproved   = (*Extension)(nil)
	_ plugin.OnWithdrawalSettled    = (*Extension)(nil)
	_ plugin.OnTransferFailed       = (*Extension)(nil)
	_ plugin.OnOperationRejected    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID          id.AuditEventID `json:"id"`
	OperationID id.OperationID  `json:"operation_id,omitempty"`
	Action      string          `json:"action"`
	Resource    string          `json:"resource"`
	Category    string          `json:"category"`
	ResourceID  string          `json:"resource_id,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Outcome     string          `json:"outcome"`
	Severity    string          `json:"severity"`
	Reason      string          `json:"reason,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnLedgerInitialized implements plugin.OnLedgerInitialized.
func (e *Extension) OnLedgerInitialized(ctx context.Context, admin types.Principal) error {
	return e.record(ctx, ActionLedgerInitialized, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryAdmin, nil,
		"admin", admin.String(),
	)
}

// ──────────────────────────────────────────────────
// Cause lifecycle hooks
// ──────────────────────────────────────────────────

// OnCauseCreated implements plugin.OnCauseCreated.
func (e *Extension) OnCauseCreated(ctx context.Context, c *cause.Cause) error {
	return e.record(ctx, ActionCauseCreated, SeverityInfo, OutcomeSuccess,
		ResourceCause, c.ID.String(), CategoryAdmin, nil,
		"name", c.Name,
		"beneficiary", c.Beneficiary.String(),
		"target_amount", int64(c.TargetAmount),
	)
}

// OnCauseStatusChanged implements plugin.OnCauseStatusChanged.
func (e *Extension) OnCauseStatusChanged(ctx context.Context, c *cause.Cause) error {
	action := ActionCauseDeactivated
	if c.IsActive {
		action = ActionCauseActivated
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceCause, c.ID.String(), CategoryAdmin, nil,
		"is_active", c.IsActive,
	)
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnContributionRecorded implements plugin.OnContributionRecorded.
func (e *Extension) OnContributionRecorded(ctx context.Context, c *contribution.Contribution) error {
	return e.record(ctx, ActionContributionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceContribution, c.ID.String(), CategoryFunding, nil,
		"cause_id", c.CauseID.String(),
		"donor", c.Donor.String(),
		"amount", int64(c.Amount),
		"transfer_id", c.TransferID.String(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalRequested implements plugin.OnWithdrawalRequested.
func (e *Extension) OnWithdrawalRequested(ctx context.Context, r *withdrawal.Request) error {
	return e.record(ctx, ActionWithdrawalRequested, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, r.ID.String(), CategoryPayout, nil,
		"cause_id", r.CauseID.String(),
		"requester", r.Requester.String(),
		"amount", int64(r.Amount),
	)
}

// OnWithdrawalApproved implements plugin.OnWithdrawalApproved.
func (e *Extension) OnWithdrawalApproved(ctx context.Context, r *withdrawal.Request) error {
	return e.record(ctx, ActionWithdrawalApproved, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, r.ID.String(), CategoryPayout, nil,
		"cause_id", r.CauseID.String(),
		"amount", int64(r.Amount),
	)
}

// OnWithdrawalSettled implements plugin.OnWithdrawalSettled.
func (e *Extension) OnWithdrawalSettled(ctx context.Context, r *withdrawal.Request) error {
	return e.record(ctx, ActionWithdrawalSettled, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, r.ID.String(), CategoryPayout, nil,
		"cause_id", r.CauseID.String(),
		"amount", int64(r.Amount),
		"transfer_id", r.SettlementTransferID.String(),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed. The books already
// reflect the transfer, so a failure needs reconciliation.
func (e *Extension) OnTransferFailed(ctx context.Context, t *transfer.Transfer, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceTransfer, t.ID.String(), CategoryIntegrity, err,
		"kind", string(t.Kind),
		"reference", t.Reference,
		"amount", int64(t.Amount),
	)
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (e *Extension) OnOperationRejected(ctx context.Context, op string, err error) error {
	severity, category := SeverityInfo, CategoryFunding
	switch {
	case fundledger.IsAuthorizationError(err):
		severity, category = SeverityWarning, CategoryAccess
	case !fundledger.IsRejection(err):
		severity, category = SeverityError, CategoryIntegrity
	}
	return e.record(ctx, ActionOperationRejected, severity, OutcomeFailure,
		ResourceOperation, op, category, err,
		"code", fundledger.Code(err),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditEventID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		RecordedAt: time.Now().UTC(),
	}
	if opID, ok := plugin.OperationIDFrom(ctx); ok {
		evt.OperationID = opID
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
