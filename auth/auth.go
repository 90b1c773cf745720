// Package auth proves that the caller of a ledger operation controls a
// principal.
//
// The ledger asks an Authorizer before every operation that acts on behalf of
// a principal (the admin, a donor, a beneficiary). How proof is carried is up
// to the host: ContextAuthorizer trusts principals the host attached to the
// context after its own authentication, JWTAuthorizer verifies a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/xraph/fundledger/types"
)

// Sentinel errors returned by authorizers.
var (
	ErrNoCredentials = errors.New("auth: no credentials in context")
	ErrNotProven     = errors.New("auth: principal not proven")
)

// Authorizer asserts that the caller controls principal p. A nil error is
// proof; any error means the proof failed.
type Authorizer interface {
	Authorize(ctx context.Context, p types.Principal) error
}

// AuthorizerFunc adapts a plain function to Authorizer.
type AuthorizerFunc func(ctx context.Context, p types.Principal) error

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, p types.Principal) error {
	return f(ctx, p)
}

// AllowAll accepts every principal. Use it when authorization happens
// upstream of the ledger, or in tests.
func AllowAll() Authorizer {
	return AuthorizerFunc(func(context.Context, types.Principal) error { return nil })
}

type principalsKey struct{}

// WithPrincipals returns a context carrying proof of control of ps, on top of
// any principals already attached.
func WithPrincipals(ctx context.Context, ps ...types.Principal) context.Context {
	existing := PrincipalsFrom(ctx)
	merged := make([]types.Principal, 0, len(existing)+len(ps))
	merged = append(merged, existing...)
	for _, p := range ps {
		if !p.IsZero() {
			merged = append(merged, p)
		}
	}
	return context.WithValue(ctx, principalsKey{}, merged)
}

// PrincipalsFrom returns the principals attached by WithPrincipals.
func PrincipalsFrom(ctx context.Context) []types.Principal {
	ps, _ := ctx.Value(principalsKey{}).([]types.Principal) //nolint:errcheck // absent is fine
	return ps
}

// ContextAuthorizer trusts principals attached with WithPrincipals.
type ContextAuthorizer struct{}

// NewContextAuthorizer returns the default authorizer.
func NewContextAuthorizer() *ContextAuthorizer { return &ContextAuthorizer{} }

// Authorize implements Authorizer.
func (ContextAuthorizer) Authorize(ctx context.Context, p types.Principal) error {
	ps := PrincipalsFrom(ctx)
	if len(ps) == 0 {
		return ErrNoCredentials
	}
	if p.IsZero() || !slices.Contains(ps, p) {
		return fmt.Errorf("%w: %q", ErrNotProven, p)
	}
	return nil
}

// Any reports whether the caller controls at least one of ps. It returns the
// first principal proven, in argument order.
func Any(ctx context.Context, a Authorizer, ps ...types.Principal) (types.Principal, error) {
	var last error = ErrNotProven
	for _, p := range ps {
		if p.IsZero() {
			continue
		}
		err := a.Authorize(ctx, p)
		if err == nil {
			return p, nil
		}
		last = err
	}
	return types.NoPrincipal, last
}
