package withdrawal

import (
	"context"

	"github.com/xraph/fundledger/cause"
)

// Store persists withdrawal requests.
type Store interface {
	CreateWithdrawal(ctx context.Context, r *Request) error
	GetWithdrawal(ctx context.Context, requestID ID) (*Request, error)
	// ListWithdrawals returns requests in ascending id order.
	ListWithdrawals(ctx context.Context, opts ListOpts) ([]*Request, error)
	UpdateWithdrawal(ctx context.Context, r *Request) error
}

// ListOpts filters ListWithdrawals. Zero values match everything.
type ListOpts struct {
	CauseID cause.ID
	State   State
	Limit   int
	Offset  int
}
