package fundledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/xraph/fundledger/auth"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/lock"
	"github.com/xraph/fundledger/plugin"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/types"
)

// DefaultLockKey names the lock every write operation holds.
const DefaultLockKey = "fundledger"

// DefaultCustody is the principal funds are held by between contribution and
// disbursement.
const DefaultCustody types.Principal = "fundledger:custody"

// Ledger is the fund-accounting engine.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	auth    auth.Authorizer
	locker  lock.Locker
	lockKey string
	now     func() time.Time
	custody types.Principal

	restrictedSettlement bool
	skipMigrate          bool
	bootstrapAdmin       types.Principal
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		auth:    auth.NewContextAuthorizer(),
		locker:  lock.NewLocal(),
		lockKey: DefaultLockKey,
		now:     func() time.Time { return time.Now().UTC() },
		custody: DefaultCustody,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithAuthorizer sets how callers prove control of a principal.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(l *Ledger) {
		if a != nil {
			l.auth = a
		}
	}
}

// WithLocker sets the lock serializing write operations.
func WithLocker(lk lock.Locker) Option {
	return func(l *Ledger) {
		if lk != nil {
			l.locker = lk
		}
	}
}

// WithLockKey sets the lock name. Ledgers sharing a store must share a key.
func WithLockKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.lockKey = key
		}
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = func() time.Time { return now().UTC() }
		}
	}
}

// WithCustody sets the principal that holds contributed funds.
func WithCustody(p types.Principal) Option {
	return func(l *Ledger) {
		if !p.IsZero() {
			l.custody = p
		}
	}
}

// WithRestrictedSettlement requires the caller of SettleWithdrawalRequest to
// prove control of the admin or of the cause beneficiary. Without it anyone
// may settle an approved request.
func WithRestrictedSettlement() Option {
	return func(l *Ledger) {
		l.restrictedSettlement = true
	}
}

// WithoutMigrate makes Start skip store migration.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// WithBootstrapAdmin makes Start initialize a fresh ledger with admin. The
// configured admin is trusted without proof; an already initialized ledger is
// left alone.
func WithBootstrapAdmin(admin types.Principal) Option {
	return func(l *Ledger) {
		l.bootstrapAdmin = admin
	}
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Start migrates the store, initializes plugins and applies WithBootstrapAdmin.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	l.plugins.EmitInit(ctx, l)

	if err := l.bootstrap(ctx); err != nil {
		return err
	}

	l.logger.Info("fundledger started",
		"lock_key", l.lockKey,
		"custody", l.custody.String(),
		"restricted_settlement", l.restrictedSettlement,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and releases the store and lock.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	var errs MultiError
	if c, ok := l.locker.(io.Closer); ok {
		errs.Add(c.Close())
	}
	errs.Add(l.store.Close())
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ──────────────────────────────────────────────────
// Initialization
// ──────────────────────────────────────────────────

// Initialize sets the administrator and resets every id counter to 1. The
// caller must prove control of admin. It succeeds once per ledger; later
// calls fail with ErrAlreadyInitialized and change nothing.
func (l *Ledger) Initialize(ctx context.Context, admin types.Principal) error {
	return l.initialize(ctx, admin, true)
}

// bootstrap initializes the ledger with the WithBootstrapAdmin principal.
func (l *Ledger) bootstrap(ctx context.Context) error {
	if l.bootstrapAdmin.IsZero() {
		return nil
	}
	if _, err := l.store.GetConfig(ctx); !errors.Is(err, ErrNotInitialized) {
		if err == nil {
			l.logger.Debug("ledger already initialized, bootstrap skipped")
		}
		return err
	}
	err := l.initialize(ctx, l.bootstrapAdmin, false)
	if errors.Is(err, ErrAlreadyInitialized) {
		l.logger.Debug("ledger already initialized, bootstrap skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("fundledger: bootstrap admin: %w", err)
	}
	return nil
}

func (l *Ledger) initialize(ctx context.Context, admin types.Principal, proof bool) error {
	const op = "initialize"
	ctx, opID := l.begin(ctx)

	err := l.locker.WithLock(ctx, l.lockKey, func(ctx context.Context) error {
		if admin.IsZero() {
			return ValidationError{Field: "admin", Message: "must not be empty"}
		}
		if proof {
			if err := l.prove(ctx, admin); err != nil {
				return err
			}
		}

		_, err := l.store.GetConfig(ctx)
		switch {
		case err == nil:
			return ErrAlreadyInitialized
		case !errors.Is(err, ErrNotInitialized):
			return err
		}

		return l.store.SaveConfig(ctx, config.New(admin, l.now()))
	})
	if err != nil {
		return l.reject(ctx, op, err)
	}

	l.logger.Info("ledger initialized", "op_id", opID.String(), "admin", admin.String())
	l.plugins.EmitLedgerInitialized(ctx, admin)
	return nil
}

// Admin returns the configured administrator.
func (l *Ledger) Admin(ctx context.Context) (types.Principal, error) {
	cfg, err := l.store.GetConfig(ctx)
	if err != nil {
		return types.NoPrincipal, err
	}
	return cfg.Admin, nil
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// begin tags ctx with a fresh operation id for plugins and logs.
func (l *Ledger) begin(ctx context.Context) (context.Context, id.OperationID) {
	opID := id.NewOperationID()
	return plugin.WithOperationID(ctx, opID), opID
}

// prove asks the authorizer for proof that the caller controls p.
func (l *Ledger) prove(ctx context.Context, p types.Principal) error {
	if err := l.auth.Authorize(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	return nil
}

// requireAdmin loads the configuration and proves the caller is the admin.
// An uninitialized ledger has no admin, so every admin operation fails with
// ErrNotAuthorized.
func (l *Ledger) requireAdmin(ctx context.Context) (*config.Config, error) {
	cfg, err := l.store.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil, fmt.Errorf("%w: %w", ErrNotAuthorized, err)
		}
		return nil, err
	}
	if err := l.prove(ctx, cfg.Admin); err != nil {
		return nil, err
	}
	return cfg, nil
}

// allocate returns the current value of counter and advances it.
func allocate(counter *uint32) (uint32, error) {
	next := *counter
	if next == 0 {
		next = config.FirstID
	}
	if next == math.MaxUint32 {
		return 0, ErrIDExhausted
	}
	*counter = next + 1
	return next, nil
}

// reject logs and broadcasts a failed operation and returns err unchanged.
func (l *Ledger) reject(ctx context.Context, op string, err error) error {
	if IsRejection(err) {
		l.logger.Debug("operation rejected", "op", op, "code", Code(err), "error", err)
	} else {
		l.logger.Error("operation failed", "op", op, "error", err)
	}
	l.plugins.EmitOperationRejected(ctx, op, err)
	return err
}
