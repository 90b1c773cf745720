package extension

import "time"

// Config holds the fundledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.fundledger" or "fundledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BootstrapAdmin initializes the ledger with this administrator on start
	// when it has not been initialized yet. The configured admin is trusted
	// without proof, whichever authorizer the ledger uses.
	BootstrapAdmin string `json:"bootstrap_admin" mapstructure:"bootstrap_admin" yaml:"bootstrap_admin"`

	// LockKey names the lock every write holds (default: "fundledger").
	// Ledgers sharing a store must share the key.
	LockKey string `json:"lock_key" mapstructure:"lock_key" yaml:"lock_key"`

	// LockRedisAddrs switches the write lock to a Redis RedLock across these
	// nodes. Empty keeps the in-process lock.
	LockRedisAddrs []string `json:"lock_redis_addrs" mapstructure:"lock_redis_addrs" yaml:"lock_redis_addrs"`

	// LockExpiry bounds how long a Redis lock is held (default: 10s).
	LockExpiry time.Duration `json:"lock_expiry" mapstructure:"lock_expiry" yaml:"lock_expiry"`

	// RestrictedSettlement requires settlers to prove they are the admin or
	// the cause beneficiary.
	RestrictedSettlement bool `json:"restricted_settlement" mapstructure:"restricted_settlement" yaml:"restricted_settlement"`

	// Custody is the principal holding funds between contribution and
	// disbursement (default: "fundledger:custody").
	Custody string `json:"custody" mapstructure:"custody" yaml:"custody"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LockKey:       "fundledger",
		LockExpiry:    10 * time.Second,
		Custody:       "fundledger:custody",
		PluginTimeout: 5 * time.Second,
	}
}
