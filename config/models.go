// Package config holds the ledger's configuration record: the administrator
// principal and the three sequential id counters.
package config

import (
	"time"

	"github.com/xraph/fundledger/types"
)

// FirstID is the value every id counter starts from.
const FirstID uint32 = 1

// Config is the single configuration record of a ledger. It is loaded once
// per operation and passed explicitly into every authorization check.
type Config struct {
	types.Entity
	Admin              types.Principal `json:"admin"`
	NextCauseID        uint32          `json:"next_cause_id"`
	NextContributionID uint32          `json:"next_contribution_id"`
	NextWithdrawalID   uint32          `json:"next_withdrawal_id"`
	InitializedAt      time.Time       `json:"initialized_at"`
}

// New returns a freshly initialized configuration for admin with every
// counter reset to FirstID.
func New(admin types.Principal, at time.Time) *Config {
	return &Config{
		Entity:             types.NewEntityAt(at),
		Admin:              admin,
		NextCauseID:        FirstID,
		NextContributionID: FirstID,
		NextWithdrawalID:   FirstID,
		InitializedAt:      at.UTC(),
	}
}

// IsAdmin reports whether p is the configured administrator.
func (c *Config) IsAdmin(p types.Principal) bool {
	return c != nil && !c.Admin.IsZero() && c.Admin.Equal(p)
}
