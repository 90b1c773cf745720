package fundledger

import (
	"context"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/types"
)

// AddCauseInput describes a new cause.
type AddCauseInput struct {
	Name         string
	Description  string
	TargetAmount types.Amount
	Beneficiary  types.Principal
}

func (in AddCauseInput) validate() error {
	if in.Beneficiary.IsZero() {
		return ValidationError{Field: "beneficiary", Message: "must not be empty"}
	}
	if in.TargetAmount.IsNegative() {
		return ValidationError{Field: "target_amount", Message: "must not be negative"}
	}
	return nil
}

// AddCause registers a cause and returns its id. Admin only. The cause starts
// active with nothing raised.
func (l *Ledger) AddCause(ctx context.Context, in AddCauseInput) (cause.ID, error) {
	const op = "add_cause"
	ctx, opID := l.begin(ctx)

	var created *cause.Cause
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		cfg, err := l.requireAdmin(ctx)
		if err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}

		next, err := allocate(&cfg.NextCauseID)
		if err != nil {
			return err
		}
		now := l.now()
		c := &cause.Cause{
			Entity:       types.NewEntityAt(now),
			ID:           cause.ID(next),
			Name:         in.Name,
			Description:  in.Description,
			TotalRaised:  types.Zero,
			TargetAmount: in.TargetAmount,
			IsActive:     true,
			Beneficiary:  in.Beneficiary,
		}

		cfg.Touch(now)
		err = l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			if err := tx.SaveConfig(ctx, cfg); err != nil {
				return err
			}
			return tx.CreateCause(ctx, c)
		})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return 0, l.reject(ctx, op, err)
	}

	l.logger.Info("cause created",
		"op_id", opID.String(),
		"cause_id", created.ID.String(),
		"beneficiary", created.Beneficiary.String(),
		"target", int64(created.TargetAmount),
	)
	l.plugins.EmitCauseCreated(ctx, created)
	return created.ID, nil
}

// GetCause returns a cause.
func (l *Ledger) GetCause(ctx context.Context, causeID cause.ID) (*cause.Cause, error) {
	return l.store.GetCause(ctx, causeID)
}

// ListCauses returns every cause in ascending id order.
func (l *Ledger) ListCauses(ctx context.Context) ([]*cause.Cause, error) {
	return l.store.ListCauses(ctx, cause.ListOpts{})
}

// ToggleCauseStatus flips whether a cause accepts contributions and returns
// the new state. Admin only.
func (l *Ledger) ToggleCauseStatus(ctx context.Context, causeID cause.ID) (bool, error) {
	const op = "toggle_cause_status"
	ctx, opID := l.begin(ctx)

	var updated *cause.Cause
	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		if _, err := l.requireAdmin(ctx); err != nil {
			return err
		}
		c, err := l.store.GetCause(ctx, causeID)
		if err != nil {
			return err
		}

		c.IsActive = !c.IsActive
		c.Touch(l.now())
		if err := l.store.UpdateCause(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return false, l.reject(ctx, op, err)
	}

	l.logger.Info("cause status changed",
		"op_id", opID.String(),
		"cause_id", updated.ID.String(),
		"active", updated.IsActive,
	)
	l.plugins.EmitCauseStatusChanged(ctx, updated)
	return updated.IsActive, nil
}
