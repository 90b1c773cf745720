package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// configKey is the _id of the single configuration document.
const configKey = "ledger"

// ==================== Config models ====================

type configModel struct {
	grove.BaseModel `grove:"table:fundledger_config"`

	Key                string    `grove:"key,pk"               bson:"_id"`
	Admin              string    `grove:"admin"                bson:"admin"`
	NextCauseID        int64     `grove:"next_cause_id"        bson:"next_cause_id"`
	NextContributionID int64     `grove:"next_contribution_id" bson:"next_contribution_id"`
	NextWithdrawalID   int64     `grove:"next_withdrawal_id"   bson:"next_withdrawal_id"`
	InitializedAt      time.Time `grove:"initialized_at"       bson:"initialized_at"`
	CreatedAt          time.Time `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"           bson:"updated_at"`
}

func toConfigModel(c *config.Config) *configModel {
	return &configModel{
		Key:                configKey,
		Admin:              c.Admin.String(),
		NextCauseID:        int64(c.NextCauseID),
		NextContributionID: int64(c.NextContributionID),
		NextWithdrawalID:   int64(c.NextWithdrawalID),
		InitializedAt:      c.InitializedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func fromConfigModel(m *configModel) *config.Config {
	return &config.Config{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Admin:              types.Principal(m.Admin),
		NextCauseID:        uint32(m.NextCauseID),
		NextContributionID: uint32(m.NextContributionID),
		NextWithdrawalID:   uint32(m.NextWithdrawalID),
		InitializedAt:      m.InitializedAt,
	}
}

// ==================== Cause models ====================

type causeModel struct {
	grove.BaseModel `grove:"table:fundledger_causes"`

	ID           int64     `grove:"id,pk"         bson:"_id"`
	Name         string    `grove:"name"          bson:"name"`
	Description  string    `grove:"description"   bson:"description"`
	TotalRaised  int64     `grove:"total_raised"  bson:"total_raised"`
	TargetAmount int64     `grove:"target_amount" bson:"target_amount"`
	IsActive     bool      `grove:"is_active"     bson:"is_active"`
	Beneficiary  string    `grove:"beneficiary"   bson:"beneficiary"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"    bson:"updated_at"`
}

func toCauseModel(c *cause.Cause) *causeModel {
	return &causeModel{
		ID:           int64(c.ID),
		Name:         c.Name,
		Description:  c.Description,
		TotalRaised:  int64(c.TotalRaised),
		TargetAmount: int64(c.TargetAmount),
		IsActive:     c.IsActive,
		Beneficiary:  c.Beneficiary.String(),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromCauseModel(m *causeModel) *cause.Cause {
	return &cause.Cause{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           cause.ID(m.ID),
		Name:         m.Name,
		Description:  m.Description,
		TotalRaised:  types.Amount(m.TotalRaised),
		TargetAmount: types.Amount(m.TargetAmount),
		IsActive:     m.IsActive,
		Beneficiary:  types.Principal(m.Beneficiary),
	}
}

// ==================== Contribution models ====================

type contributionModel struct {
	grove.BaseModel `grove:"table:fundledger_contributions"`

	ID         int64     `grove:"id,pk"       bson:"_id"`
	Donor      string    `grove:"donor"       bson:"donor"`
	CauseID    int64     `grove:"cause_id"    bson:"cause_id"`
	Amount     int64     `grove:"amount"      bson:"amount"`
	Timestamp  time.Time `grove:"timestamp"   bson:"timestamp"`
	TransferID string    `grove:"transfer_id" bson:"transfer_id,omitempty"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toContributionModel(c *contribution.Contribution) *contributionModel {
	return &contributionModel{
		ID:         int64(c.ID),
		Donor:      c.Donor.String(),
		CauseID:    int64(c.CauseID),
		Amount:     int64(c.Amount),
		Timestamp:  c.Timestamp,
		TransferID: c.TransferID.String(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromContributionModel(m *contributionModel) (*contribution.Contribution, error) {
	transferID, err := parseTransferID(m.TransferID)
	if err != nil {
		return nil, err
	}
	return &contribution.Contribution{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         contribution.ID(m.ID),
		Donor:      types.Principal(m.Donor),
		CauseID:    cause.ID(m.CauseID),
		Amount:     types.Amount(m.Amount),
		Timestamp:  m.Timestamp,
		TransferID: transferID,
	}, nil
}

// ==================== Withdrawal models ====================

type withdrawalModel struct {
	grove.BaseModel `grove:"table:fundledger_withdrawals"`

	ID                   int64      `grove:"id,pk"                  bson:"_id"`
	CauseID              int64      `grove:"cause_id"               bson:"cause_id"`
	Requester            string     `grove:"requester"              bson:"requester"`
	Amount               int64      `grove:"amount"                 bson:"amount"`
	Description          string     `grove:"description"            bson:"description"`
	IsApproved           bool       `grove:"is_approved"            bson:"is_approved"`
	IsPaid               bool       `grove:"is_paid"                bson:"is_paid"`
	Timestamp            time.Time  `grove:"timestamp"              bson:"timestamp"`
	ApprovedAt           *time.Time `grove:"approved_at"            bson:"approved_at,omitempty"`
	SettledAt            *time.Time `grove:"settled_at"             bson:"settled_at,omitempty"`
	SettlementTransferID string     `grove:"settlement_transfer_id" bson:"settlement_transfer_id,omitempty"`
	CreatedAt            time.Time  `grove:"created_at"             bson:"created_at"`
	UpdatedAt            time.Time  `grove:"updated_at"             bson:"updated_at"`
}

func toWithdrawalModel(r *withdrawal.Request) *withdrawalModel {
	return &withdrawalModel{
		ID:                   int64(r.ID),
		CauseID:              int64(r.CauseID),
		Requester:            r.Requester.String(),
		Amount:               int64(r.Amount),
		Description:          r.Description,
		IsApproved:           r.IsApproved,
		IsPaid:               r.IsPaid,
		Timestamp:            r.Timestamp,
		ApprovedAt:           r.ApprovedAt,
		SettledAt:            r.SettledAt,
		SettlementTransferID: r.SettlementTransferID.String(),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*withdrawal.Request, error) {
	transferID, err := parseTransferID(m.SettlementTransferID)
	if err != nil {
		return nil, err
	}
	return &withdrawal.Request{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   withdrawal.ID(m.ID),
		CauseID:              cause.ID(m.CauseID),
		Requester:            types.Principal(m.Requester),
		Amount:               types.Amount(m.Amount),
		Description:          m.Description,
		IsApproved:           m.IsApproved,
		IsPaid:               m.IsPaid,
		Timestamp:            m.Timestamp,
		ApprovedAt:           m.ApprovedAt,
		SettledAt:            m.SettledAt,
		SettlementTransferID: transferID,
	}, nil
}

func parseTransferID(s string) (id.TransferID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.ParseTransferID(s)
}
