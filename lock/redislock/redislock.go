// Package redislock provides a lock.Locker backed by the Redis RedLock
// algorithm, for several ledger processes sharing one durable store.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/xraph/fundledger/lock"
)

const maxTries = 1000

// Validation errors.
var (
	ErrNilClient     = errors.New("redislock: nil redis client")
	ErrEmptyKey      = errors.New("redislock: empty lock key")
	ErrExpiryInvalid = errors.New("redislock: expiry must be greater than 0")
	ErrTriesInvalid  = errors.New("redislock: tries must be at least 1")
	ErrTriesExceeded = errors.New("redislock: tries exceeds maximum")
	ErrRetryDelay    = errors.New("redislock: retry delay cannot be negative")
	ErrDriftFactor   = errors.New("redislock: drift factor must be in [0, 1)")
	ErrAcquire       = errors.New("redislock: failed to acquire lock")
)

var _ lock.Locker = (*Locker)(nil)

// Options tune lock acquisition.
type Options struct {
	// Expiry bounds how long a crashed holder can block others.
	Expiry time.Duration
	// Tries is the number of acquisition attempts.
	Tries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
	// DriftFactor accounts for clock drift between Redis nodes.
	DriftFactor float64
	// Prefix is prepended to every lock key.
	Prefix string
}

// DefaultOptions suits short ledger transitions.
func DefaultOptions() Options {
	return Options{
		Expiry:      10 * time.Second,
		Tries:       32,
		RetryDelay:  100 * time.Millisecond,
		DriftFactor: 0.01,
		Prefix:      "fundledger:lock:",
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Expiry <= 0 {
		return ErrExpiryInvalid
	}
	if o.Tries < 1 {
		return ErrTriesInvalid
	}
	if o.Tries > maxTries {
		return fmt.Errorf("%w: %d > %d", ErrTriesExceeded, o.Tries, maxTries)
	}
	if o.RetryDelay < 0 {
		return ErrRetryDelay
	}
	if o.DriftFactor < 0 || o.DriftFactor >= 1 {
		return ErrDriftFactor
	}
	return nil
}

// Option configures a Locker.
type Option func(*Locker)

// WithOptions replaces the acquisition options.
func WithOptions(o Options) Option {
	return func(l *Locker) { l.opts = o }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) { l.logger = logger }
}

// Locker implements lock.Locker over one or more Redis clients.
type Locker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *slog.Logger
}

// New returns a Locker. Passing several independent clients enables the full
// RedLock quorum; one client is enough for a single Redis deployment.
func New(clients []goredislib.UniversalClient, opts ...Option) (*Locker, error) {
	if len(clients) == 0 {
		return nil, ErrNilClient
	}

	pools := make([]redsyncredis.Pool, 0, len(clients))
	for _, c := range clients {
		if c == nil {
			return nil, ErrNilClient
		}
		pools = append(pools, goredis.NewPool(c))
	}

	l := &Locker{
		rs:     redsync.New(pools...),
		opts:   DefaultOptions(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.opts.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// WithLock implements lock.Locker. The error from fn is returned unchanged.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return lock.ErrNilFunc
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	name := l.opts.Prefix + key
	mutex := l.rs.NewMutex(
		name,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
		redsync.WithDriftFactor(l.opts.DriftFactor),
	)

	if err := mutex.LockContext(ctx); err != nil {
		l.logger.Warn("redislock: acquire failed", "key", name, "error", err)
		return fmt.Errorf("%w %s: %w", ErrAcquire, name, err)
	}

	defer func() {
		// Release even when the caller's context is already done.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Error("redislock: release failed", "key", name, "unlock_ok", ok, "error", err)
		}
	}()

	return fn(ctx)
}
