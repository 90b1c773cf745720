package contribution

import (
	"context"

	"github.com/xraph/fundledger/cause"
)

// Store persists contributions. There is no update or delete.
type Store interface {
	CreateContribution(ctx context.Context, c *Contribution) error
	GetContribution(ctx context.Context, contributionID ID) (*Contribution, error)
	// ListContributions returns contributions in ascending id order.
	ListContributions(ctx context.Context, opts ListOpts) ([]*Contribution, error)
}

// ListOpts filters ListContributions. A zero CauseID matches every cause.
type ListOpts struct {
	CauseID cause.ID
	Limit   int
	Offset  int
}
