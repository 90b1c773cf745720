package fundledger

import (
	"context"
	"errors"

	"github.com/xraph/fundledger/auth"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// CreateWithdrawalRequest files a Pending claim of amount against a cause and
// returns its id. The caller must prove control of requester, who must be the
// cause beneficiary. The amount must be positive and covered by the current
// balance; the balance is checked again at settlement.
func (l *Ledger) CreateWithdrawalRequest(ctx context.Context, causeID cause.ID, requester types.Principal, amount types.Amount, description string) (withdrawal.ID, error) {
	const op = "create_withdrawal_request"
	ctx, opID := l.begin(ctx)

	var filed *withdrawal.Request
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		if err := l.prove(ctx, requester); err != nil {
			return err
		}
		c, err := l.store.GetCause(ctx, causeID)
		if err != nil {
			return err
		}
		if !c.Beneficiary.Equal(requester) {
			return ErrNotAuthorized
		}
		if !amount.IsPositive() || !c.Covers(amount) {
			return ErrInsufficientFunds
		}
		cfg, err := l.store.GetConfig(ctx)
		if err != nil {
			return err
		}
		next, err := allocate(&cfg.NextWithdrawalID)
		if err != nil {
			return err
		}

		now := l.now()
		r := &withdrawal.Request{
			Entity:      types.NewEntityAt(now),
			ID:          withdrawal.ID(next),
			CauseID:     causeID,
			Requester:   requester,
			Amount:      amount,
			Description: description,
			Timestamp:   now,
		}

		cfg.Touch(now)
		err = l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			if err := tx.SaveConfig(ctx, cfg); err != nil {
				return err
			}
			return tx.CreateWithdrawal(ctx, r)
		})
		if err != nil {
			return err
		}
		filed = r
		return nil
	})
	if err != nil {
		return 0, l.reject(ctx, op, err)
	}

	l.logger.Info("withdrawal requested",
		"op_id", opID.String(),
		"request_id", filed.ID.String(),
		"cause_id", causeID.String(),
		"amount", int64(amount),
	)
	l.plugins.EmitWithdrawalRequested(ctx, filed)
	return filed.ID, nil
}

// ApproveWithdrawalRequest latches approval on a Pending request. Admin only.
// The balance is not touched.
func (l *Ledger) ApproveWithdrawalRequest(ctx context.Context, requestID withdrawal.ID) error {
	const op = "approve_withdrawal_request"
	ctx, opID := l.begin(ctx)

	var approved *withdrawal.Request
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		if _, err := l.requireAdmin(ctx); err != nil {
			return err
		}
		r, err := l.store.GetWithdrawal(ctx, requestID)
		if err != nil {
			return err
		}
		if !r.CanApprove() {
			return ErrWithdrawalRequestAlreadyProcessed
		}

		r.Approve(l.now())
		if err := l.store.UpdateWithdrawal(ctx, r); err != nil {
			return err
		}
		approved = r
		return nil
	})
	if err != nil {
		return l.reject(ctx, op, err)
	}

	l.logger.Info("withdrawal approved",
		"op_id", opID.String(),
		"request_id", approved.ID.String(),
		"cause_id", approved.CauseID.String(),
	)
	l.plugins.EmitWithdrawalApproved(ctx, approved)
	return nil
}

// SettleWithdrawalRequest pays an Approved request: the request is marked paid
// and its cause is debited in one store transaction. The cause balance is re-read and must still cover
// the amount. A custody -> beneficiary transfer is handed to transfer
// providers afterwards.
//
// Anyone may settle unless the ledger was built WithRestrictedSettlement, in
// which case the caller must prove control of the admin or the beneficiary.
func (l *Ledger) SettleWithdrawalRequest(ctx context.Context, requestID withdrawal.ID) error {
	const op = "settle_withdrawal_request"
	ctx, opID := l.begin(ctx)

	var (
		settled     *withdrawal.Request
		beneficiary types.Principal
	)
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		r, err := l.store.GetWithdrawal(ctx, requestID)
		if err != nil {
			return err
		}
		if l.restrictedSettlement {
			owner, err := l.store.GetCause(ctx, r.CauseID)
			if err != nil {
				return err
			}
			if err := l.proveSettler(ctx, owner); err != nil {
				return err
			}
		}
		if !r.CanSettle() {
			return ErrWithdrawalRequestAlreadyProcessed
		}
		c, err := l.store.GetCause(ctx, r.CauseID)
		if err != nil {
			return err
		}
		remaining, ok := c.TotalRaised.Sub(r.Amount)
		if !c.Covers(r.Amount) || !ok {
			return ErrInsufficientFunds
		}

		now := l.now()
		r.Settle(now, id.NewTransferID())
		c.TotalRaised = remaining
		c.Touch(now)
		err = l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			if err := tx.UpdateWithdrawal(ctx, r); err != nil {
				return err
			}
			return tx.UpdateCause(ctx, c)
		})
		if err != nil {
			return err
		}
		settled = r
		beneficiary = c.Beneficiary
		return nil
	})
	if err != nil {
		return l.reject(ctx, op, err)
	}

	l.logger.Info("withdrawal settled",
		"op_id", opID.String(),
		"request_id", settled.ID.String(),
		"cause_id", settled.CauseID.String(),
		"amount", int64(settled.Amount),
	)
	l.plugins.EmitWithdrawalSettled(ctx, settled)
	l.plugins.DispatchTransfer(ctx, transfer.Outbound(
		settled.SettlementTransferID, opID, l.custody, beneficiary, settled.Amount, settled.CauseID, settled.ID, *settled.SettledAt,
	))
	return nil
}

// proveSettler accepts the admin or the cause beneficiary.
func (l *Ledger) proveSettler(ctx context.Context, c *cause.Cause) error {
	candidates := []types.Principal{c.Beneficiary}
	cfg, err := l.store.GetConfig(ctx)
	switch {
	case err == nil:
		candidates = append(candidates, cfg.Admin)
	case !errors.Is(err, ErrNotInitialized):
		return err
	}
	if _, err := auth.Any(ctx, l.auth, candidates...); err != nil {
		return errors.Join(ErrNotAuthorized, err)
	}
	return nil
}

// GetWithdrawalRequest returns a single withdrawal request.
func (l *Ledger) GetWithdrawalRequest(ctx context.Context, requestID withdrawal.ID) (*withdrawal.Request, error) {
	return l.store.GetWithdrawal(ctx, requestID)
}

// WithdrawalRequestsForCause returns a cause's requests in ascending id
// order. An unknown cause yields an empty list.
func (l *Ledger) WithdrawalRequestsForCause(ctx context.Context, causeID cause.ID) ([]*withdrawal.Request, error) {
	if causeID == 0 {
		return []*withdrawal.Request{}, nil
	}
	return l.store.ListWithdrawals(ctx, withdrawal.ListOpts{CauseID: causeID})
}
