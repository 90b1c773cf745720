package config

import "context"

// Store persists the configuration record.
type Store interface {
	// GetConfig returns the stored record, or fundledger.ErrNotInitialized
	// when the ledger has never been initialized.
	GetConfig(ctx context.Context) (*Config, error)

	// SaveConfig inserts or replaces the record.
	SaveConfig(ctx context.Context, c *Config) error
}
