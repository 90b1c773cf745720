package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	ledgerstore "github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/withdrawal"
)

// Collection name constants.
const (
	colConfig        = "fundledger_config"
	colCauses        = "fundledger_causes"
	colContributions = "fundledger_contributions"
	colWithdrawals   = "fundledger_withdrawals"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db   *grove.DB
	mdb  *mongodriver.MongoDB
	inTx bool
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all fundledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("fundledger/mongo: migrate %s indexes: %w", col, err)
		}
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

// RunInTx runs fn inside a MongoDB multi-document transaction. Queries issued
// through tx carry the session on their context. Transactions need a replica
// set or sharded cluster; the driver reports an error on a standalone server.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	client := s.mdb.Collection(colConfig).Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("fundledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	tx := &Store{db: s.db, mdb: s.mdb, inTx: true}
	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, tx)
	})
	return err
}

// ==================== Config Store ====================

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	var m configModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": configKey}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fundledger.ErrNotInitialized
		}
		return nil, fmt.Errorf("fundledger/mongo: get config: %w", err)
	}
	return fromConfigModel(&m), nil
}

func (s *Store) SaveConfig(ctx context.Context, c *config.Config) error {
	m := toConfigModel(c)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"admin":                m.Admin,
			"next_cause_id":        m.NextCauseID,
			"next_contribution_id": m.NextContributionID,
			"next_withdrawal_id":   m.NextWithdrawalID,
			"initialized_at":       m.InitializedAt,
			"created_at":           m.CreatedAt,
			"updated_at":           m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/mongo: save config: %w", err)
	}
	return nil
}

// ==================== Cause Store ====================

func (s *Store) CreateCause(ctx context.Context, c *cause.Cause) error {
	_, err := s.mdb.NewInsert(toCauseModel(c)).Exec(ctx)
	return insertErr("create cause", err)
}

func (s *Store) GetCause(ctx context.Context, causeID cause.ID) (*cause.Cause, error) {
	var m causeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(causeID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fundledger.ErrCauseNotFound
		}
		return nil, fmt.Errorf("fundledger/mongo: get cause: %w", err)
	}
	return fromCauseModel(&m), nil
}

func (s *Store) ListCauses(ctx context.Context, opts cause.ListOpts) ([]*cause.Cause, error) {
	var models []causeModel

	filter := bson.M{}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/mongo: list causes: %w", err)
	}

	result := make([]*cause.Cause, len(models))
	for i := range models {
		result[i] = fromCauseModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateCause(ctx context.Context, c *cause.Cause) error {
	m := toCauseModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/mongo: update cause: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fundledger.ErrCauseNotFound
	}
	return nil
}

// ==================== Contribution Store ====================

func (s *Store) CreateContribution(ctx context.Context, c *contribution.Contribution) error {
	_, err := s.mdb.NewInsert(toContributionModel(c)).Exec(ctx)
	return insertErr("create contribution", err)
}

func (s *Store) GetContribution(ctx context.Context, contributionID contribution.ID) (*contribution.Contribution, error) {
	var m contributionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(contributionID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fundledger.ErrContributionNotFound
		}
		return nil, fmt.Errorf("fundledger/mongo: get contribution: %w", err)
	}
	return fromContributionModel(&m)
}

func (s *Store) ListContributions(ctx context.Context, opts contribution.ListOpts) ([]*contribution.Contribution, error) {
	var models []contributionModel

	filter := bson.M{}
	if opts.CauseID != 0 {
		filter["cause_id"] = int64(opts.CauseID)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/mongo: list contributions: %w", err)
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
	_, err := s.mdb.NewInsert(toWithdrawalModel(r)).Exec(ctx)
	return insertErr("create withdrawal", err)
}

func (s *Store) GetWithdrawal(ctx context.Context, requestID withdrawal.ID) (*withdrawal.Request, error) {
	var m withdrawalModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(requestID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fundledger.ErrWithdrawalRequestNotFound
		}
		return nil, fmt.Errorf("fundledger/mongo: get withdrawal: %w", err)
	}
	return fromWithdrawalModel(&m)
}

func (s *Store) ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	var models []withdrawalModel

	filter := bson.M{}
	if opts.CauseID != 0 {
		filter["cause_id"] = int64(opts.CauseID)
	}
	if opts.State != "" {
		approved, paid := withdrawal.Flags(opts.State)
		filter["is_approved"] = approved
		filter["is_paid"] = paid
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundledger/mongo: list withdrawals: %w", err)
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
	m := toWithdrawalModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundledger/mongo: update withdrawal: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fundledger.ErrWithdrawalRequestNotFound
	}
	return nil
}

// ==================== Helpers ====================

// insertErr maps a duplicate _id onto ErrAlreadyExists.
func insertErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fundledger.ErrAlreadyExists
	default:
		return fmt.Errorf("fundledger/mongo: %s: %w", op, err)
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all fundledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colConfig: nil,
		colCauses: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colContributions: {
			{Keys: bson.D{{Key: "cause_id", Value: 1}, {Key: "_id", Value: 1}}},
			{
				Keys:    bson.D{{Key: "transfer_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "cause_id", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "is_approved", Value: 1}, {Key: "is_paid", Value: 1}}},
		},
	}
}
