package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the fundledger store.
var Migrations = migrate.NewGroup("fundledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_fundledger_config",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundledger_config (
    key                  TEXT PRIMARY KEY,
    admin                TEXT NOT NULL,
    next_cause_id        BIGINT NOT NULL DEFAULT 1,
    next_contribution_id BIGINT NOT NULL DEFAULT 1,
    next_withdrawal_id   BIGINT NOT NULL DEFAULT 1,
    initialized_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundledger_config`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundledger_causes",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundledger_causes (
    id            BIGINT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    total_raised  BIGINT NOT NULL DEFAULT 0 CHECK (total_raised >= 0),
    target_amount BIGINT NOT NULL DEFAULT 0,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    beneficiary   TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fundledger_causes_active ON fundledger_causes (is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundledger_causes`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundledger_contributions",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundledger_contributions (
    id          BIGINT PRIMARY KEY,
    donor       TEXT NOT NULL,
    cause_id    BIGINT NOT NULL,
    amount      BIGINT NOT NULL CHECK (amount > 0),
    timestamp   TIMESTAMPTZ NOT NULL,
    transfer_id TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fundledger_contributions_cause ON fundledger_contributions (cause_id, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundledger_contributions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundledger_withdrawals",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundledger_withdrawals (
    id                     BIGINT PRIMARY KEY,
    cause_id               BIGINT NOT NULL,
    requester              TEXT NOT NULL,
    amount                 BIGINT NOT NULL CHECK (amount > 0),
    description            TEXT NOT NULL DEFAULT '',
    is_approved            BOOLEAN NOT NULL DEFAULT FALSE,
    is_paid                BOOLEAN NOT NULL DEFAULT FALSE,
    timestamp              TIMESTAMPTZ NOT NULL,
    approved_at            TIMESTAMPTZ,
    settled_at             TIMESTAMPTZ,
    settlement_transfer_id TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (NOT is_paid OR is_approved)
);

CREATE INDEX IF NOT EXISTS idx_fundledger_withdrawals_cause ON fundledger_withdrawals (cause_id, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundledger_withdrawals`)
				return err
			},
		},
	)
}
