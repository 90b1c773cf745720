package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestConfigModelMapping(t *testing.T) {
	cfg := config.New("admin", at)
	cfg.NextCauseID = 4

	m := toConfigModel(cfg)
	assert.Equal(t, configKey, m.Key)

	got := fromConfigModel(m)
	assert.Equal(t, cfg.Admin, got.Admin)
	assert.Equal(t, uint32(4), got.NextCauseID)
	assert.Equal(t, cfg.NextContributionID, got.NextContributionID)
	assert.Equal(t, cfg.NextWithdrawalID, got.NextWithdrawalID)
	assert.True(t, cfg.InitializedAt.Equal(got.InitializedAt))
}

func TestCauseModelMapping(t *testing.T) {
	c := &cause.Cause{
		Entity:       types.NewEntityAt(at),
		ID:           3,
		Name:         "Dog",
		Description:  "shelter",
		TotalRaised:  250,
		TargetAmount: 1000,
		IsActive:     true,
		Beneficiary:  "ben",
	}
	assert.Equal(t, c, fromCauseModel(toCauseModel(c)))
}

func TestContributionModelMapping(t *testing.T) {
	c := &contribution.Contribution{
		Entity:     types.NewEntityAt(at),
		ID:         9,
		Donor:      "donor",
		CauseID:    3,
		Amount:     50,
		Timestamp:  at,
		TransferID: id.NewTransferID(),
	}
	got, err := fromContributionModel(toContributionModel(c))
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Donor, got.Donor)
	assert.Equal(t, c.CauseID, got.CauseID)
	assert.Equal(t, c.Amount, got.Amount)
	assert.Equal(t, c.TransferID.String(), got.TransferID.String())

	m := toContributionModel(c)
	m.TransferID = "not-a-typeid"
	_, err = fromContributionModel(m)
	assert.Error(t, err)
}

func TestWithdrawalModelMapping(t *testing.T) {
	t.Run("Settled", func(t *testing.T) {
		r := &withdrawal.Request{
			Entity:    types.NewEntityAt(at),
			ID:        4,
			CauseID:   2,
			Requester: "ben",
			Amount:    75,
			Timestamp: at,
		}
		r.Approve(at)
		r.Settle(at.Add(time.Hour), id.NewTransferID())

		got, err := fromWithdrawalModel(toWithdrawalModel(r))
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StateSettled, got.State())
		require.NotNil(t, got.ApprovedAt)
		require.NotNil(t, got.SettledAt)
		assert.True(t, r.SettledAt.Equal(*got.SettledAt))
		assert.Equal(t, r.SettlementTransferID.String(), got.SettlementTransferID.String())
	})

	t.Run("Pending", func(t *testing.T) {
		r := &withdrawal.Request{ID: 5, CauseID: 2, Requester: "ben", Amount: 1, Timestamp: at}

		m := toWithdrawalModel(r)
		assert.Nil(t, m.ApprovedAt)
		assert.Nil(t, m.SettledAt)
		assert.Empty(t, m.SettlementTransferID)

		got, err := fromWithdrawalModel(m)
		require.NoError(t, err)
		assert.Equal(t, withdrawal.StatePending, got.State())
		assert.Nil(t, got.ApprovedAt)
		assert.Nil(t, got.SettledAt)
		assert.True(t, got.SettlementTransferID.IsNil())
	})
}

func TestParseTransferID(t *testing.T) {
	got, err := parseTransferID("")
	require.NoError(t, err)
	assert.True(t, got.IsNil())

	want := id.NewTransferID()
	got, err = parseTransferID(want.String())
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())

	_, err = parseTransferID(id.NewAuditEventID().String())
	assert.Error(t, err)
}

func TestWithdrawalFilters(t *testing.T) {
	tests := []struct {
		name  string
		opts  withdrawal.ListOpts
		exprs []string
		args  []any
	}{
		{name: "None"},
		{
			name:  "CauseOnly",
			opts:  withdrawal.ListOpts{CauseID: 7},
			exprs: []string{"cause_id = $1"},
			args:  []any{int64(7)},
		},
		{
			name:  "StateOnly",
			opts:  withdrawal.ListOpts{State: withdrawal.StateApproved},
			exprs: []string{"is_approved = $1", "is_paid = $2"},
			args:  []any{true, false},
		},
		{
			name:  "CauseAndState",
			opts:  withdrawal.ListOpts{CauseID: 7, State: withdrawal.StateSettled},
			exprs: []string{"cause_id = $1", "is_approved = $2", "is_paid = $3"},
			args:  []any{int64(7), true, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := withdrawalFilters(tt.opts)
			require.Len(t, ws, len(tt.exprs))
			for i, w := range ws {
				assert.Equal(t, tt.exprs[i], w.expr)
				assert.Equal(t, tt.args[i], w.arg)
			}
		})
	}
}
