package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	ledgerstore "github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/withdrawal"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db   *grove.DB
	pg   *pgdriver.PgDB
	q    querier
	inTx bool
}

// querier is the query-builder surface shared by the database handle and an
// open transaction.
type querier interface {
	NewSelect(model ...any) *pgdriver.SelectQuery
	NewInsert(model any) *pgdriver.InsertQuery
	NewUpdate(model any) *pgdriver.UpdateQuery
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	pg := pgdriver.Unwrap(db)
	return &Store{db: db, pg: pg, q: pg}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("fundledger/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection. It is a no-op on the store handed to
// a RunInTx callback.
func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

// RunInTx runs fn inside a database transaction that commits when fn returns
// nil and rolls back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: begin transaction: %w", err)
	}
	if err := fn(ctx, &Store{db: s.db, pg: s.pg, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("fundledger/postgres: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("fundledger/postgres: commit: %w", err)
	}
	return nil
}

// ==================== Config Store ====================

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	m := new(configModel)
	err := s.q.NewSelect(m).
		Where("key = $1", configKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fundledger.ErrNotInitialized
		}
		return nil, fmt.Errorf("fundledger/postgres: get config: %w", err)
	}
	return fromConfigModel(m), nil
}

func (s *Store) SaveConfig(ctx context.Context, c *config.Config) error {
	_, err := s.q.NewInsert(toConfigModel(c)).
		OnConflict("(key) DO UPDATE").
		Set("admin = EXCLUDED.admin").
		Set("next_cause_id = EXCLUDED.next_cause_id").
		Set("next_contribution_id = EXCLUDED.next_contribution_id").
		Set("next_withdrawal_id = EXCLUDED.next_withdrawal_id").
		Set("initialized_at = EXCLUDED.initialized_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: save config: %w", err)
	}
	return nil
}

// ==================== Cause Store ====================

func (s *Store) CreateCause(ctx context.Context, c *cause.Cause) error {
	res, err := s.q.NewInsert(toCauseModel(c)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: create cause: %w", err)
	}
	return expectRow(res, fundledger.ErrAlreadyExists)
}

func (s *Store) GetCause(ctx context.Context, causeID cause.ID) (*cause.Cause, error) {
	m := new(causeModel)
	err := s.q.NewSelect(m).
		Where("id = $1", int64(causeID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fundledger.ErrCauseNotFound
		}
		return nil, fmt.Errorf("fundledger/postgres: get cause: %w", err)
	}
	return fromCauseModel(m), nil
}

func (s *Store) ListCauses(ctx context.Context, opts cause.ListOpts) ([]*cause.Cause, error) {
	var models []causeModel
	q := s.q.NewSelect(&models)

	if opts.ActiveOnly {
		q = q.Where("is_active = $1", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/postgres: list causes: %w", err)
	}

	result := make([]*cause.Cause, len(models))
	for i := range models {
		result[i] = fromCauseModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateCause(ctx context.Context, c *cause.Cause) error {
	res, err := s.q.NewUpdate(toCauseModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: update cause: %w", err)
	}
	return expectRow(res, fundledger.ErrCauseNotFound)
}

// ==================== Contribution Store ====================

func (s *Store) CreateContribution(ctx context.Context, c *contribution.Contribution) error {
	res, err := s.q.NewInsert(toContributionModel(c)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: create contribution: %w", err)
	}
	return expectRow(res, fundledger.ErrAlreadyExists)
}

func (s *Store) GetContribution(ctx context.Context, contributionID contribution.ID) (*contribution.Contribution, error) {
	m := new(contributionModel)
	err := s.q.NewSelect(m).
		Where("id = $1", int64(contributionID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fundledger.ErrContributionNotFound
		}
		return nil, fmt.Errorf("fundledger/postgres: get contribution: %w", err)
	}
	return fromContributionModel(m)
}

func (s *Store) ListContributions(ctx context.Context, opts contribution.ListOpts) ([]*contribution.Contribution, error) {
	var models []contributionModel
	q := s.q.NewSelect(&models)

	if opts.CauseID != 0 {
		q = q.Where("cause_id = $1", int64(opts.CauseID))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/postgres: list contributions: %w", err)
	}

	result := make([]*contribution.Contribution, len(models))
	for i := range models {
		c, err := fromContributionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Withdrawal Store ====================

func (s *Store) CreateWithdrawal(ctx context.Context, r *withdrawal.Request) error {
	res, err := s.q.NewInsert(toWithdrawalModel(r)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: create withdrawal: %w", err)
	}
	return expectRow(res, fundledger.ErrAlreadyExists)
}

func (s *Store) GetWithdrawal(ctx context.Context, requestID withdrawal.ID) (*withdrawal.Request, error) {
	m := new(withdrawalModel)
	err := s.q.NewSelect(m).
		Where("id = $1", int64(requestID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fundledger.ErrWithdrawalRequestNotFound
		}
		return nil, fmt.Errorf("fundledger/postgres: get withdrawal: %w", err)
	}
	return fromWithdrawalModel(m)
}

func (s *Store) ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	var models []withdrawalModel
	q := s.q.NewSelect(&models)

	for _, w := range withdrawalFilters(opts) {
		q = q.Where(w.expr, w.arg)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/postgres: list withdrawals: %w", err)
	}

	result := make([]*withdrawal.Request, len(models))
	for i := range models {
		r, err := fromWithdrawalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, r *withdrawal.Request) error {
	res, err := s.q.NewUpdate(toWithdrawalModel(r)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/postgres: update withdrawal: %w", err)
	}
	return expectRow(res, fundledger.ErrWithdrawalRequestNotFound)
}

// ==================== Helpers ====================

// where is one WHERE clause and its argument.
type where struct {
	expr string
	arg  any
}

// withdrawalFilters returns the WHERE clauses for opts with placeholders
// numbered from $1.
func withdrawalFilters(opts withdrawal.ListOpts) []where {
	var ws []where
	add := func(col string, arg any) {
		ws = append(ws, where{expr: fmt.Sprintf("%s = $%d", col, len(ws)+1), arg: arg})
	}
	if opts.CauseID != 0 {
		add("cause_id", int64(opts.CauseID))
	}
	if opts.State != "" {
		approved, paid := withdrawal.Flags(opts.State)
		add("is_approved", approved)
		add("is_paid", paid)
	}
	return ws
}

// rowsResult is the part of an exec result expectRow needs.
type rowsResult interface {
	RowsAffected() (int64, error)
}

// expectRow returns missing when res touched no row.
func expectRow(res rowsResult, missing error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return missing
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
