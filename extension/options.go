package extension

import (
	"time"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/auth"
	"github.com/xraph/fundledger/lock"
	"github.com/xraph/fundledger/plugin"
	"github.com/xraph/fundledger/store"
)

// Option configures the fundledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a fundledger.Option through to the underlying engine.
func WithLedgerOption(opt fundledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, fundledger.WithPlugin(p))
	}
}

// WithAuthorizer sets how principals are proven.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, fundledger.WithAuthorizer(a))
	}
}

// WithLocker sets the write lock. It takes precedence over LockRedisAddrs.
func WithLocker(lk lock.Locker) Option {
	return func(e *Extension) { e.locker = lk }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBootstrapAdmin initializes the ledger with admin on start.
func WithBootstrapAdmin(admin string) Option {
	return func(e *Extension) { e.config.BootstrapAdmin = admin }
}

// WithLockKey sets the name of the write lock.
func WithLockKey(key string) Option {
	return func(e *Extension) { e.config.LockKey = key }
}

// WithRedisLock switches the write lock to Redis across addrs.
func WithRedisLock(expiry time.Duration, addrs ...string) Option {
	return func(e *Extension) {
		e.config.LockRedisAddrs = addrs
		e.config.LockExpiry = expiry
	}
}

// WithRestrictedSettlement limits settlement to the admin or beneficiary.
func WithRestrictedSettlement() Option {
	return func(e *Extension) { e.config.RestrictedSettlement = true }
}

// WithCustody sets the custody principal.
func WithCustody(p string) Option {
	return func(e *Extension) { e.config.Custody = p }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
