package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/fundledger/types"
)

type tokenKey struct{}

// WithToken attaches a raw bearer token to ctx. A leading "Bearer " is
// stripped.
func WithToken(ctx context.Context, raw string) context.Context {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return context.WithValue(ctx, tokenKey{}, raw)
}

// TokenFrom returns the token attached by WithToken.
func TokenFrom(ctx context.Context) string {
	raw, _ := ctx.Value(tokenKey{}).(string) //nolint:errcheck // absent is fine
	return raw
}

// JWTAuthorizer proves a principal by verifying a signed token whose subject
// claim equals the principal.
type JWTAuthorizer struct {
	key      any
	methods  []string
	issuer   string
	audience string
	leeway   time.Duration
}

// JWTOption configures a JWTAuthorizer.
type JWTOption func(*JWTAuthorizer)

// WithMethods restricts the accepted signing algorithms.
func WithMethods(methods ...string) JWTOption {
	return func(a *JWTAuthorizer) { a.methods = methods }
}

// WithIssuer requires the iss claim to match.
func WithIssuer(iss string) JWTOption {
	return func(a *JWTAuthorizer) { a.issuer = iss }
}

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) JWTOption {
	return func(a *JWTAuthorizer) { a.audience = aud }
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) JWTOption {
	return func(a *JWTAuthorizer) { a.leeway = d }
}

// NewJWTAuthorizer builds an authorizer verifying tokens with key: a []byte
// secret for HMAC, or an RSA, ECDSA or Ed25519 public key. The accepted
// algorithms default to the family matching the key type.
func NewJWTAuthorizer(key any, opts ...JWTOption) (*JWTAuthorizer, error) {
	a := &JWTAuthorizer{key: key, leeway: 30 * time.Second}
	switch k := key.(type) {
	case []byte:
		if len(k) == 0 {
			return nil, errors.New("auth: empty HMAC secret")
		}
		a.methods = []string{"HS256", "HS384", "HS512"}
	case *rsa.PublicKey:
		a.methods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}
	case *ecdsa.PublicKey:
		a.methods = []string{"ES256", "ES384", "ES512"}
	case ed25519.PublicKey:
		a.methods = []string{"EdDSA"}
	default:
		return nil, fmt.Errorf("auth: unsupported verification key %T", key)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Authorize implements Authorizer.
func (a *JWTAuthorizer) Authorize(ctx context.Context, p types.Principal) error {
	raw := TokenFrom(ctx)
	if raw == "" {
		return ErrNoCredentials
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(a.methods),
		jwt.WithLeeway(a.leeway),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(a.audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}, parserOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotProven, err)
	}
	if !token.Valid {
		return ErrNotProven
	}
	if p.IsZero() || claims.Subject != p.String() {
		return fmt.Errorf("%w: token subject %q does not match %q", ErrNotProven, claims.Subject, p)
	}
	return nil
}
