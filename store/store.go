// Package store defines the aggregate persistence interface the ledger
// engine runs against. Backends live in the subpackages.
package store

import (
	"context"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/withdrawal"
)

// Store is the unified storage interface for every ledger record family.
//
// Backends translate their own not-found conditions into the fundledger
// sentinels (ErrNotInitialized, ErrCauseNotFound, ErrContributionNotFound,
// ErrWithdrawalRequestNotFound) and report duplicate inserts as
// ErrAlreadyExists. Reads must observe every write that returned nil.
type Store interface {
	config.Store
	cause.Store
	contribution.Store
	withdrawal.Store

	// RunInTx runs fn against tx, a view of the store whose writes commit
	// together when fn returns nil and are discarded otherwise. fn must use
	// tx, not the receiver. Calling RunInTx on tx joins the enclosing
	// transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Migrate creates or upgrades the backend schema.
	Migrate(ctx context.Context) error
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
