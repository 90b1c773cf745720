// Package extension provides the Forge extension adapter for fundledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration, configuration loading and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.fundledger" or
// "fundledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	goredislib "github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/lock"
	"github.com/xraph/fundledger/lock/redislock"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/store/memory"
	"github.com/xraph/fundledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "fundledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fund-accounting ledger for donation causes"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts fundledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *fundledger.Ledger
	store      store.Store
	locker     lock.Locker
	redis      []goredislib.UniversalClient
	ledgerOpts []fundledger.Option
}

// New creates a new fundledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *fundledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	e.engine = fundledger.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*fundledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension]. The engine initializes a fresh ledger
// when BootstrapAdmin is set.
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("fundledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	var errs fundledger.MultiError
	if e.engine != nil {
		errs.Add(e.engine.Stop())
	}
	for _, c := range e.redis {
		errs.Add(c.Close())
	}
	e.MarkStopped()
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("fundledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs fundledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]fundledger.Option, error) {
	opts := make([]fundledger.Option, 0, len(e.ledgerOpts)+7)

	if e.config.DisableMigrate {
		opts = append(opts, fundledger.WithoutMigrate())
	}
	if e.config.LockKey != "" {
		opts = append(opts, fundledger.WithLockKey(e.config.LockKey))
	}
	if e.config.Custody != "" {
		opts = append(opts, fundledger.WithCustody(types.Principal(e.config.Custody)))
	}
	if e.config.BootstrapAdmin != "" {
		opts = append(opts, fundledger.WithBootstrapAdmin(types.Principal(e.config.BootstrapAdmin)))
	}
	if e.config.RestrictedSettlement {
		opts = append(opts, fundledger.WithRestrictedSettlement())
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, fundledger.WithPluginTimeout(e.config.PluginTimeout))
	}

	locker, err := e.resolveLocker()
	if err != nil {
		return nil, err
	}
	if locker != nil {
		opts = append(opts, fundledger.WithLocker(locker))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// resolveLocker returns the programmatic locker, a Redis locker built from
// config, or nil for the engine default.
func (e *Extension) resolveLocker() (lock.Locker, error) {
	if e.locker != nil {
		return e.locker, nil
	}
	if len(e.config.LockRedisAddrs) == 0 {
		return nil, nil //nolint:nilnil // nil selects the in-process lock
	}

	clients := make([]goredislib.UniversalClient, 0, len(e.config.LockRedisAddrs))
	for _, addr := range e.config.LockRedisAddrs {
		clients = append(clients, goredislib.NewUniversalClient(&goredislib.UniversalOptions{
			Addrs: []string{addr},
		}))
	}

	ropts := redislock.DefaultOptions()
	if e.config.LockExpiry != 0 {
		ropts.Expiry = e.config.LockExpiry
	}
	lk, err := redislock.New(clients, redislock.WithOptions(ropts))
	if err != nil {
		for _, c := range clients {
			_ = c.Close()
		}
		return nil, fmt.Errorf("fundledger: redis lock: %w", err)
	}
	e.redis = clients
	return lk, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("fundledger: configuration is required but not found in config files; " +
				"ensure 'extensions.fundledger' or 'fundledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("fundledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("bootstrap_admin", e.config.BootstrapAdmin),
		forge.F("lock_key", e.config.LockKey),
		forge.F("lock_redis_nodes", len(e.config.LockRedisAddrs)),
		forge.F("restricted_settlement", e.config.RestrictedSettlement),
		forge.F("custody", e.config.Custody),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.fundledger" first (namespaced pattern).
	if cm.IsSet("extensions.fundledger") {
		if err := cm.Bind("extensions.fundledger", &cfg); err == nil {
			e.Logger().Debug("fundledger: loaded config from file",
				forge.F("key", "extensions.fundledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("fundledger: failed to bind extensions.fundledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try the short "fundledger" key.
	if cm.IsSet("fundledger") {
		if err := cm.Bind("fundledger", &cfg); err == nil {
			e.Logger().Debug("fundledger: loaded config from file",
				forge.F("key", "fundledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("fundledger: failed to bind fundledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LockKey == "" {
		cfg.LockKey = defaults.LockKey
	}
	if cfg.LockExpiry == 0 {
		cfg.LockExpiry = defaults.LockExpiry
	}
	if cfg.Custody == "" {
		cfg.Custody = defaults.Custody
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.RestrictedSettlement {
		yamlConfig.RestrictedSettlement = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BootstrapAdmin == "" {
		yamlConfig.BootstrapAdmin = programmaticConfig.BootstrapAdmin
	}
	if yamlConfig.LockKey == "" {
		yamlConfig.LockKey = programmaticConfig.LockKey
	}
	if yamlConfig.Custody == "" {
		yamlConfig.Custody = programmaticConfig.Custody
	}
	if len(yamlConfig.LockRedisAddrs) == 0 {
		yamlConfig.LockRedisAddrs = programmaticConfig.LockRedisAddrs
	}

	// Durations: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.LockExpiry == 0 {
		yamlConfig.LockExpiry = programmaticConfig.LockExpiry
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
