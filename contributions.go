package fundledger

import (
	"context"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
)

// Donate books a contribution of amount from donor to a cause and returns the
// contribution id. The caller must prove control of donor.
//
// Checks run in this order: amount > 0 (ErrInsufficientFunds), the cause
// exists (ErrCauseNotFound), the cause is active (ErrCauseNotActive). The
// counter, the receipt and the raised balance commit in one store
// transaction. Once booked, a donor -> custody transfer is handed to transfer providers; a
// provider failure does not undo the contribution.
func (l *Ledger) Donate(ctx context.Context, donor types.Principal, causeID cause.ID, amount types.Amount) (contribution.ID, error) {
	const op = "donate"
	ctx, opID := l.begin(ctx)

	var booked *contribution.Contribution
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		if err := l.prove(ctx, donor); err != nil {
			return err
		}
		if !amount.IsPositive() {
			return ErrInsufficientFunds
		}
		c, err := l.store.GetCause(ctx, causeID)
		if err != nil {
			return err
		}
		if !c.IsActive {
			return ErrCauseNotActive
		}
		raised, ok := c.TotalRaised.Add(amount)
		if !ok {
			return ErrAmountOverflow
		}
		cfg, err := l.store.GetConfig(ctx)
		if err != nil {
			return err
		}
		next, err := allocate(&cfg.NextContributionID)
		if err != nil {
			return err
		}

		now := l.now()
		rec := &contribution.Contribution{
			Entity:     types.NewEntityAt(now),
			ID:         contribution.ID(next),
			Donor:      donor,
			CauseID:    causeID,
			Amount:     amount,
			Timestamp:  now,
			TransferID: id.NewTransferID(),
		}

		cfg.Touch(now)
		c.TotalRaised = raised
		c.Touch(now)
		err = l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			if err := tx.SaveConfig(ctx, cfg); err != nil {
				return err
			}
			if err := tx.CreateContribution(ctx, rec); err != nil {
				return err
			}
			return tx.UpdateCause(ctx, c)
		})
		if err != nil {
			return err
		}
		booked = rec
		return nil
	})
	if err != nil {
		return 0, l.reject(ctx, op, err)
	}

	l.logger.Info("contribution recorded",
		"op_id", opID.String(),
		"contribution_id", booked.ID.String(),
		"cause_id", causeID.String(),
		"donor", donor.String(),
		"amount", int64(amount),
	)
	l.plugins.EmitContributionRecorded(ctx, booked)
	l.plugins.DispatchTransfer(ctx, transfer.Inbound(
		booked.TransferID, opID, donor, l.custody, amount, causeID, booked.ID, booked.Timestamp,
	))
	return booked.ID, nil
}

// ContributionsForCause returns a cause's contributions in ascending id
// order. An unknown cause yields an empty list.
func (l *Ledger) ContributionsForCause(ctx context.Context, causeID cause.ID) ([]*contribution.Contribution, error) {
	if causeID == 0 {
		return []*contribution.Contribution{}, nil
	}
	return l.store.ListContributions(ctx, contribution.ListOpts{CauseID: causeID})
}

// GetContribution returns a single contribution.
func (l *Ledger) GetContribution(ctx context.Context, contributionID contribution.ID) (*contribution.Contribution, error) {
	return l.store.GetContribution(ctx, contributionID)
}
