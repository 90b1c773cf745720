// Package observability provides a metrics extension for the ledger that
// records lifecycle event counts through a MetricFactory. NewOTelFactory
// backs the factory with an OpenTelemetry meter.
package observability

import (
	"context"
	"errors"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/plugin"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnLedgerInitialized    = (*MetricsExtension)(nil)
	_ plugin.OnCauseCreated         = (*MetricsExtension)(nil)
	_ plugin.OnCauseStatusChanged   = (*MetricsExtension)(nil)
	_ plugin.OnContributionRecorded = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalRequested  = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalApproved   = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalSettled    = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed       = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger lifecycle metrics.
// Register it as a ledger plugin to track funding activity.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle
	LedgerInitialized Counter

	// Cause metrics
	CauseCreated     Counter
	CauseActivated   Counter
	CauseDeactivated Counter

	// Funding metrics
	ContributionRecorded Counter
	ContributionAmount   Histogram

	// Withdrawal metrics
	WithdrawalRequested Counter
	WithdrawalApproved  Counter
	WithdrawalSettled   Counter
	WithdrawalAmount    Histogram

	// Transfer metrics
	TransferFailed Counter

	// Rejections, one counter per code plus a catch-all
	Rejected      map[int]Counter
	RejectedOther Counter
	InfraFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewOTelFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	m := &MetricsExtension{
		factory: factory,

		LedgerInitialized: factory.Counter("fundledger.ledger.initialized"),

		CauseCreated:     factory.Counter("fundledger.cause.created"),
		CauseActivated:   factory.Counter("fundledger.cause.activated"),
		CauseDeactivated: factory.Counter("fundledger.cause.deactivated"),

		ContributionRecorded: factory.Counter("fundledger.contribution.recorded"),
		ContributionAmount:   factory.Histogram("fundledger.contribution.amount"),

		WithdrawalRequested: factory.Counter("fundledger.withdrawal.requested"),
		WithdrawalApproved:  factory.Counter("fundledger.withdrawal.approved"),
		WithdrawalSettled:   factory.Counter("fundledger.withdrawal.settled"),
		WithdrawalAmount:    factory.Histogram("fundledger.withdrawal.settled_amount"),

		TransferFailed: factory.Counter("fundledger.transfer.failed"),

		RejectedOther: factory.Counter("fundledger.rejected.other"),
		InfraFailures: factory.Counter("fundledger.operation.failures"),
	}

	m.Rejected = map[int]Counter{
		fundledger.CodeNotAuthorized:                     factory.Counter("fundledger.rejected.not_authorized"),
		fundledger.CodeCauseNotFound:                     factory.Counter("fundledger.rejected.cause_not_found"),
		fundledger.CodeCauseNotActive:                    factory.Counter("fundledger.rejected.cause_not_active"),
		fundledger.CodeInsufficientFunds:                 factory.Counter("fundledger.rejected.insufficient_funds"),
		fundledger.CodeWithdrawalRequestNotFound:         factory.Counter("fundledger.rejected.withdrawal_request_not_found"),
		fundledger.CodeWithdrawalRequestAlreadyProcessed: factory.Counter("fundledger.rejected.withdrawal_request_already_processed"),
	}
	return m
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	if m.factory == nil {
		return errors.New("observability: nil metric factory")
	}
	return nil
}

// OnLedgerInitialized implements plugin.OnLedgerInitialized.
func (m *MetricsExtension) OnLedgerInitialized(_ context.Context, _ types.Principal) error {
	m.LedgerInitialized.Inc()
	return nil
}

// OnCauseCreated implements plugin.OnCauseCreated.
func (m *MetricsExtension) OnCauseCreated(_ context.Context, _ *cause.Cause) error {
	m.CauseCreated.Inc()
	return nil
}

// OnCauseStatusChanged implements plugin.OnCauseStatusChanged.
func (m *MetricsExtension) OnCauseStatusChanged(_ context.Context, c *cause.Cause) error {
	if c.IsActive {
		m.CauseActivated.Inc()
	} else {
		m.CauseDeactivated.Inc()
	}
	return nil
}

// OnContributionRecorded implements plugin.OnContributionRecorded.
func (m *MetricsExtension) OnContributionRecorded(_ context.Context, c *contribution.Contribution) error {
	m.ContributionRecorded.Inc()
	m.ContributionAmount.Observe(float64(c.Amount))
	return nil
}

// OnWithdrawalRequested implements plugin.OnWithdrawalRequested.
func (m *MetricsExtension) OnWithdrawalRequested(_ context.Context, _ *withdrawal.Request) error {
	m.WithdrawalRequested.Inc()
	return nil
}

// OnWithdrawalApproved implements plugin.OnWithdrawalApproved.
func (m *MetricsExtension) OnWithdrawalApproved(_ context.Context, _ *withdrawal.Request) error {
	m.WithdrawalApproved.Inc()
	return nil
}

// OnWithdrawalSettled implements plugin.OnWithdrawalSettled.
func (m *MetricsExtension) OnWithdrawalSettled(_ context.Context, r *withdrawal.Request) error {
	m.WithdrawalSettled.Inc()
	m.WithdrawalAmount.Observe(float64(r.Amount))
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ *transfer.Transfer, _ error) error {
	m.TransferFailed.Inc()
	return nil
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, _ string, err error) error {
	if !fundledger.IsRejection(err) {
		m.InfraFailures.Inc()
		return nil
	}
	if c, ok := m.Rejected[fundledger.Code(err)]; ok {
		c.Inc()
		return nil
	}
	m.RejectedOther.Inc()
	return nil
}
