package cause

import "context"

// Store persists causes.
type Store interface {
	CreateCause(ctx context.Context, c *Cause) error
	GetCause(ctx context.Context, causeID ID) (*Cause, error)
	// ListCauses returns every cause in ascending id order.
	ListCauses(ctx context.Context, opts ListOpts) ([]*Cause, error)
	UpdateCause(ctx context.Context, c *Cause) error
}

// ListOpts filters ListCauses. The zero value lists everything.
type ListOpts struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
