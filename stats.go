package fundledger

import (
	"context"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// Statistics aggregates every cause. It is recomputed on each call.
type Statistics struct {
	TotalCauses  int          `json:"total_causes"`
	ActiveCauses int          `json:"active_causes"`
	TotalRaised  types.Amount `json:"total_raised"`
}

// Statistics counts causes and active causes and sums their balances.
func (l *Ledger) Statistics(ctx context.Context) (*Statistics, error) {
	causes, err := l.store.ListCauses(ctx, cause.ListOpts{})
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalCauses: len(causes)}
	for _, c := range causes {
		if c.IsActive {
			stats.ActiveCauses++
		}
		var ok bool
		if stats.TotalRaised, ok = stats.TotalRaised.Add(c.TotalRaised); !ok {
			return nil, ErrAmountOverflow
		}
	}
	return stats, nil
}

// BalanceSheet reconciles one cause. For every cause
//
//	Contributed == Settled + TotalRaised
//
// Outstanding and Pending are the approved-unpaid and pending request totals;
// they are claims on TotalRaised, not deductions from it.
type BalanceSheet struct {
	CauseID       cause.ID     `json:"cause_id"`
	Contributed   types.Amount `json:"contributed"`
	Contributions int          `json:"contributions"`
	Settled       types.Amount `json:"settled"`
	Outstanding   types.Amount `json:"outstanding"`
	Pending       types.Amount `json:"pending"`
	TotalRaised   types.Amount `json:"total_raised"`
	Balanced      bool         `json:"balanced"`
}

// BalanceSheet returns the reconciliation for a cause.
func (l *Ledger) BalanceSheet(ctx context.Context, causeID cause.ID) (*BalanceSheet, error) {
	c, err := l.store.GetCause(ctx, causeID)
	if err != nil {
		return nil, err
	}
	contributions, err := l.store.ListContributions(ctx, contribution.ListOpts{CauseID: causeID})
	if err != nil {
		return nil, err
	}
	requests, err := l.store.ListWithdrawals(ctx, withdrawal.ListOpts{CauseID: causeID})
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		CauseID:       causeID,
		Contributions: len(contributions),
		TotalRaised:   c.TotalRaised,
	}
	var ok bool
	if sheet.Contributed, ok = contribution.Total(contributions); !ok {
		return nil, ErrAmountOverflow
	}
	for _, r := range requests {
		var bucket *types.Amount
		switch r.State() {
		case withdrawal.StateSettled:
			bucket = &sheet.Settled
		case withdrawal.StateApproved:
			bucket = &sheet.Outstanding
		case withdrawal.StatePending:
			bucket = &sheet.Pending
		default:
			continue
		}
		if *bucket, ok = bucket.Add(r.Amount); !ok {
			return nil, ErrAmountOverflow
		}
	}

	accounted, ok := sheet.Settled.Add(sheet.TotalRaised)
	sheet.Balanced = ok && accounted == sheet.Contributed && !sheet.TotalRaised.IsNegative()
	return sheet, nil
}
