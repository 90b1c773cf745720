package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newCause(id cause.ID, active bool) *cause.Cause {
	return &cause.Cause{
		Entity:      types.NewEntityAt(epoch),
		ID:          id,
		Name:        "cause " + id.String(),
		IsActive:    active,
		Beneficiary: "ben",
	}
}

func TestConfig(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetConfig(ctx)
	assert.ErrorIs(t, err, fundledger.ErrNotInitialized)

	cfg := config.New("admin", epoch)
	require.NoError(t, s.SaveConfig(ctx, cfg))
	cfg.NextCauseID = 99

	got, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.FirstID, got.NextCauseID, "store must not alias the saved value")
	assert.Equal(t, types.Principal("admin"), got.Admin)

	got.NextCauseID = 7
	require.NoError(t, s.SaveConfig(ctx, got))
	again, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), again.NextCauseID)
}

func TestCauses(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, c := range []*cause.Cause{newCause(2, true), newCause(1, false), newCause(3, true)} {
		require.NoError(t, s.CreateCause(ctx, c))
	}
	assert.ErrorIs(t, s.CreateCause(ctx, newCause(1, true)), fundledger.ErrAlreadyExists)

	all, err := s.ListCauses(ctx, cause.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []cause.ID{2, 1, 3}, []cause.ID{all[0].ID, all[1].ID, all[2].ID}, "insertion order")

	active, err := s.ListCauses(ctx, cause.ListOpts{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	paged, err := s.ListCauses(ctx, cause.ListOpts{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, cause.ID(1), paged[0].ID)

	got, err := s.GetCause(ctx, 3)
	require.NoError(t, err)
	got.TotalRaised = 1000
	unchanged, err := s.GetCause(ctx, 3)
	require.NoError(t, err)
	assert.True(t, unchanged.TotalRaised.IsZero(), "reads return copies")

	require.NoError(t, s.UpdateCause(ctx, got))
	updated, err := s.GetCause(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(1000), updated.TotalRaised)

	assert.ErrorIs(t, s.UpdateCause(ctx, newCause(9, true)), fundledger.ErrCauseNotFound)
	_, err = s.GetCause(ctx, 9)
	assert.ErrorIs(t, err, fundledger.ErrCauseNotFound)
}

func TestListSkipsMissingRecords(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateCause(ctx, newCause(1, true)))
	s.causes.order = append(s.causes.order, 42)

	all, err := s.ListCauses(ctx, cause.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, cause.ID(1), all[0].ID)
}

func TestContributions(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, causeID := range []cause.ID{1, 2, 1} {
		require.NoError(t, s.CreateContribution(ctx, &contribution.Contribution{
			ID:        contribution.ID(i + 1),
			Donor:     "donor",
			CauseID:   causeID,
			Amount:    types.Amount(10 * (i + 1)),
			Timestamp: epoch,
		}))
	}
	err := s.CreateContribution(ctx, &contribution.Contribution{ID: 1})
	assert.ErrorIs(t, err, fundledger.ErrAlreadyExists)

	forOne, err := s.ListContributions(ctx, contribution.ListOpts{CauseID: 1})
	require.NoError(t, err)
	require.Len(t, forOne, 2)
	assert.Equal(t, contribution.ID(1), forOne[0].ID)
	assert.Equal(t, contribution.ID(3), forOne[1].ID)

	all, err := s.ListContributions(ctx, contribution.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := s.GetContribution(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(20), got.Amount)

	_, err = s.GetContribution(ctx, 8)
	assert.ErrorIs(t, err, fundledger.ErrContributionNotFound)
}

func TestWithdrawals(t *testing.T) {
	ctx := context.Background()
	s := New()

	pending := &withdrawal.Request{ID: 1, CauseID: 1, Requester: "ben", Amount: 5, Timestamp: epoch}
	approved := &withdrawal.Request{ID: 2, CauseID: 1, Requester: "ben", Amount: 7, Timestamp: epoch}
	approved.Approve(epoch)
	other := &withdrawal.Request{ID: 3, CauseID: 2, Requester: "ben", Amount: 9, Timestamp: epoch}

	for _, r := range []*withdrawal.Request{pending, approved, other} {
		require.NoError(t, s.CreateWithdrawal(ctx, r))
	}
	assert.ErrorIs(t, s.CreateWithdrawal(ctx, pending), fundledger.ErrAlreadyExists)

	// Mutating the caller's value after create must not leak into the store.
	approved.ApprovedAt = nil
	got, err := s.GetWithdrawal(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedAt)

	byCause, err := s.ListWithdrawals(ctx, withdrawal.ListOpts{CauseID: 1})
	require.NoError(t, err)
	assert.Len(t, byCause, 2)

	byState, err := s.ListWithdrawals(ctx, withdrawal.ListOpts{State: withdrawal.StateApproved})
	require.NoError(t, err)
	require.Len(t, byState, 1)
	assert.Equal(t, withdrawal.ID(2), byState[0].ID)

	got.IsPaid = true
	require.NoError(t, s.UpdateWithdrawal(ctx, got))
	settled, err := s.GetWithdrawal(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, withdrawal.StateSettled, settled.State())

	err = s.UpdateWithdrawal(ctx, &withdrawal.Request{ID: 50})
	assert.ErrorIs(t, err, fundledger.ErrWithdrawalRequestNotFound)
	_, err = s.GetWithdrawal(ctx, 50)
	assert.ErrorIs(t, err, fundledger.ErrWithdrawalRequestNotFound)
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), fundledger.ErrStoreClosed)
	assert.ErrorIs(t, s.Migrate(ctx), fundledger.ErrStoreClosed)
	_, err := s.GetConfig(ctx)
	assert.ErrorIs(t, err, fundledger.ErrStoreClosed)
	assert.ErrorIs(t, s.CreateCause(ctx, newCause(1, true)), fundledger.ErrStoreClosed)
	_, err = s.ListWithdrawals(ctx, withdrawal.ListOpts{})
	assert.ErrorIs(t, err, fundledger.ErrStoreClosed)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4}
	assert.Equal(t, []int{1, 2, 3, 4}, page(items, 0, 0))
	assert.Equal(t, []int{2, 3}, page(items, 1, 2))
	assert.Equal(t, []int{4}, page(items, 3, 10))
	assert.Empty(t, page(items, 9, 1))
	assert.Equal(t, []int{1}, page(items, -3, 1))
}

var errBoom = errors.New("boom")

// seedForTx stores a config, cause 1 and a pending withdrawal 1.
func seedForTx(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveConfig(ctx, config.New("admin", epoch)))
	require.NoError(t, s.CreateCause(ctx, newCause(1, true)))
	require.NoError(t, s.CreateWithdrawal(ctx, &withdrawal.Request{ID: 1, CauseID: 1, Requester: "ben", Amount: 5, Timestamp: epoch}))
	return s
}

// writeEverything touches every record family through tx.
func writeEverything(ctx context.Context, tx store.Store) error {
	cfg, err := tx.GetConfig(ctx)
	if err != nil {
		return err
	}
	cfg.NextCauseID = 3
	if err := tx.SaveConfig(ctx, cfg); err != nil {
		return err
	}
	if err := tx.CreateCause(ctx, newCause(2, true)); err != nil {
		return err
	}
	c, err := tx.GetCause(ctx, 1)
	if err != nil {
		return err
	}
	c.TotalRaised = 100
	if err := tx.UpdateCause(ctx, c); err != nil {
		return err
	}
	if err := tx.CreateContribution(ctx, &contribution.Contribution{ID: 1, CauseID: 1, Amount: 100}); err != nil {
		return err
	}
	if err := tx.CreateWithdrawal(ctx, &withdrawal.Request{ID: 2, CauseID: 1, Amount: 1}); err != nil {
		return err
	}
	r, err := tx.GetWithdrawal(ctx, 1)
	if err != nil {
		return err
	}
	r.Approve(epoch)
	return tx.UpdateWithdrawal(ctx, r)
}

func assertUntouched(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.FirstID, cfg.NextCauseID)

	causes, err := s.ListCauses(ctx, cause.ListOpts{})
	require.NoError(t, err)
	require.Len(t, causes, 1)
	assert.True(t, causes[0].TotalRaised.IsZero())

	contributions, err := s.ListContributions(ctx, contribution.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, contributions)

	requests, err := s.ListWithdrawals(ctx, withdrawal.ListOpts{})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, withdrawal.StatePending, requests[0].State())
}

func TestRunInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := seedForTx(t)

	require.NoError(t, s.RunInTx(ctx, writeEverything))

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.NextCauseID)
	c, err := s.GetCause(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(100), c.TotalRaised)
	_, err = s.GetCause(ctx, 2)
	require.NoError(t, err)
	_, err = s.GetContribution(ctx, 1)
	require.NoError(t, err)
	r, err := s.GetWithdrawal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, withdrawal.StateApproved, r.State())
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	s := seedForTx(t)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Store) error {
		if err := writeEverything(ctx, tx); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assertUntouched(t, s)
}

func TestRunInTxRollsBackOnFailedWrite(t *testing.T) {
	s := seedForTx(t)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Store) error {
		if err := writeEverything(ctx, tx); err != nil {
			return err
		}
		return tx.CreateCause(ctx, newCause(1, true))
	})
	assert.ErrorIs(t, err, fundledger.ErrAlreadyExists)
	assertUntouched(t, s)
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	s := seedForTx(t)

	assert.Panics(t, func() {
		_ = s.RunInTx(context.Background(), func(ctx context.Context, tx store.Store) error {
			if err := writeEverything(ctx, tx); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assertUntouched(t, s)
}

func TestRunInTxNestedJoins(t *testing.T) {
	s := seedForTx(t)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Store) error {
		if err := tx.RunInTx(ctx, writeEverything); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assertUntouched(t, s)
}

func TestRunInTxClosed(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	called := false
	err := s.RunInTx(context.Background(), func(context.Context, store.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, fundledger.ErrStoreClosed)
	assert.False(t, called)
}
