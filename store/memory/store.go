// Package memory provides an in-memory store.Store.
//
// Each record family is an arena: an ordered slice of ids in insertion order
// plus a map from id to record. Records are copied on the way in and on the
// way out, so callers never share memory with the store.
//
// RunInTx holds the write lock for the whole callback and keeps an undo log;
// a failed callback replays the log so none of its writes remain.
package memory

import (
	"context"
	"sync"

	fundledger "github.com/xraph/fundledger"
	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/config"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/store"
	"github.com/xraph/fundledger/withdrawal"
)

var _ store.Store = (*Store)(nil)

// arena keeps records in insertion order.
type arena[K comparable, V any] struct {
	order []K
	items map[K]V
}

func newArena[K comparable, V any]() arena[K, V] {
	return arena[K, V]{items: make(map[K]V)}
}

func (a *arena[K, V]) insert(k K, v V) bool {
	if _, exists := a.items[k]; exists {
		return false
	}
	a.order = append(a.order, k)
	a.items[k] = v
	return true
}

// remove drops k. Only used to undo an insert, so k is searched from the end.
func (a *arena[K, V]) remove(k K) {
	delete(a.items, k)
	for i := len(a.order) - 1; i >= 0; i-- {
		if a.order[i] == k {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

func (a *arena[K, V]) replace(k K, v V) bool {
	if _, exists := a.items[k]; !exists {
		return false
	}
	a.items[k] = v
	return true
}

// each visits records in insertion order. Ids whose record is missing are
// skipped.
func (a *arena[K, V]) each(fn func(V) bool) {
	for _, k := range a.order {
		v, ok := a.items[k]
		if !ok {
			continue
		}
		if !fn(v) {
			return
		}
	}
}

// Store is a goroutine-safe in-memory store.
type Store struct {
	mu sync.RWMutex
	state
}

// state holds the records. Its methods assume the caller holds the lock.
type state struct {
	closed bool

	cfg           *config.Config
	causes        arena[cause.ID, *cause.Cause]
	contributions arena[contribution.ID, *contribution.Contribution]
	withdrawals   arena[withdrawal.ID, *withdrawal.Request]
}

// New returns an empty store.
func New() *Store {
	return &Store{state: state{
		causes:        newArena[cause.ID, *cause.Cause](),
		contributions: newArena[contribution.ID, *contribution.Contribution](),
		withdrawals:   newArena[withdrawal.ID, *withdrawal.Request](),
	}}
}

// Migrate is a no-op.
func (s *Store) Migrate(_ context.Context) error { return s.check() }

// Ping reports ErrStoreClosed after Close.
func (s *Store) Ping(_ context.Context) error { return s.check() }

// Close marks the store closed. Later calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.check()
}

// RunInTx runs fn with the write lock held. Every write fn makes through tx
// is undone when fn returns an error or panics. fn must not call s directly;
// the lock is not reentrant.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.check(); err != nil {
		return err
	}
	t := &txStore{st: &s.state}
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()
	if err := fn(ctx, t); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) GetConfig(_ context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getConfig()
}

func (s *Store) SaveConfig(_ context.Context, c *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveConfig(c)
}

func (s *Store) CreateCause(_ context.Context, c *cause.Cause) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCause(c)
}

func (s *Store) GetCause(_ context.Context, causeID cause.ID) (*cause.Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCause(causeID)
}

func (s *Store) ListCauses(_ context.Context, opts cause.ListOpts) ([]*cause.Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listCauses(opts)
}

func (s *Store) UpdateCause(_ context.Context, c *cause.Cause) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCause(c)
}

func (s *Store) CreateContribution(_ context.Context, c *contribution.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createContribution(c)
}

func (s *Store) GetContribution(_ context.Context, contributionID contribution.ID) (*contribution.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getContribution(contributionID)
}

func (s *Store) ListContributions(_ context.Context, opts contribution.ListOpts) ([]*contribution.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listContributions(opts)
}

func (s *Store) CreateWithdrawal(_ context.Context, r *withdrawal.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createWithdrawal(r)
}

func (s *Store) GetWithdrawal(_ context.Context, requestID withdrawal.ID) (*withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWithdrawal(requestID)
}

func (s *Store) ListWithdrawals(_ context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWithdrawals(opts)
}

func (s *Store) UpdateWithdrawal(_ context.Context, r *withdrawal.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateWithdrawal(r)
}

// ==================== Transactions ====================

// txStore is the store.Store handed to RunInTx callbacks. The enclosing
// RunInTx already holds the write lock.
type txStore struct {
	st   *state
	undo []func()
}

var _ store.Store = (*txStore)(nil)

func (t *txStore) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txStore) Migrate(_ context.Context) error { return t.st.check() }
func (t *txStore) Ping(_ context.Context) error    { return t.st.check() }

// Close is a no-op; the enclosing store owns its lifecycle.
func (t *txStore) Close() error { return nil }

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

func (t *txStore) GetConfig(_ context.Context) (*config.Config, error) { return t.st.getConfig() }

func (t *txStore) SaveConfig(_ context.Context, c *config.Config) error {
	prev := t.st.cfg
	if err := t.st.saveConfig(c); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.cfg = prev })
	return nil
}

func (t *txStore) CreateCause(_ context.Context, c *cause.Cause) error {
	if err := t.st.createCause(c); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.causes.remove(c.ID) })
	return nil
}

func (t *txStore) GetCause(_ context.Context, causeID cause.ID) (*cause.Cause, error) {
	return t.st.getCause(causeID)
}

func (t *txStore) ListCauses(_ context.Context, opts cause.ListOpts) ([]*cause.Cause, error) {
	return t.st.listCauses(opts)
}

func (t *txStore) UpdateCause(_ context.Context, c *cause.Cause) error {
	prev := t.st.causes.items[c.ID]
	if err := t.st.updateCause(c); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.causes.replace(prev.ID, prev) })
	return nil
}

func (t *txStore) CreateContribution(_ context.Context, c *contribution.Contribution) error {
	if err := t.st.createContribution(c); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.contributions.remove(c.ID) })
	return nil
}

func (t *txStore) GetContribution(_ context.Context, contributionID contribution.ID) (*contribution.Contribution, error) {
	return t.st.getContribution(contributionID)
}

func (t *txStore) ListContributions(_ context.Context, opts contribution.ListOpts) ([]*contribution.Contribution, error) {
	return t.st.listContributions(opts)
}

func (t *txStore) CreateWithdrawal(_ context.Context, r *withdrawal.Request) error {
	if err := t.st.createWithdrawal(r); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.withdrawals.remove(r.ID) })
	return nil
}

func (t *txStore) GetWithdrawal(_ context.Context, requestID withdrawal.ID) (*withdrawal.Request, error) {
	return t.st.getWithdrawal(requestID)
}

func (t *txStore) ListWithdrawals(_ context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	return t.st.listWithdrawals(opts)
}

func (t *txStore) UpdateWithdrawal(_ context.Context, r *withdrawal.Request) error {
	prev := t.st.withdrawals.items[r.ID]
	if err := t.st.updateWithdrawal(r); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.st.withdrawals.replace(prev.ID, prev) })
	return nil
}

// ==================== Records ====================

func (st *state) check() error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	return nil
}

func (st *state) getConfig() (*config.Config, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	if st.cfg == nil {
		return nil, fundledger.ErrNotInitialized
	}
	cp := *st.cfg
	return &cp, nil
}

func (st *state) saveConfig(c *config.Config) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	cp := *c
	st.cfg = &cp
	return nil
}

func (st *state) createCause(c *cause.Cause) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	if !st.causes.insert(c.ID, c.Clone()) {
		return fundledger.ErrAlreadyExists
	}
	return nil
}

func (st *state) getCause(causeID cause.ID) (*cause.Cause, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	if c, ok := st.causes.items[causeID]; ok {
		return c.Clone(), nil
	}
	return nil, fundledger.ErrCauseNotFound
}

func (st *state) listCauses(opts cause.ListOpts) ([]*cause.Cause, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	result := make([]*cause.Cause, 0, len(st.causes.order))
	st.causes.each(func(c *cause.Cause) bool {
		if !opts.ActiveOnly || c.IsActive {
			result = append(result, c.Clone())
		}
		return true
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (st *state) updateCause(c *cause.Cause) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	if !st.causes.replace(c.ID, c.Clone()) {
		return fundledger.ErrCauseNotFound
	}
	return nil
}

func (st *state) createContribution(c *contribution.Contribution) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	cp := *c
	if !st.contributions.insert(c.ID, &cp) {
		return fundledger.ErrAlreadyExists
	}
	return nil
}

func (st *state) getContribution(contributionID contribution.ID) (*contribution.Contribution, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	if c, ok := st.contributions.items[contributionID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fundledger.ErrContributionNotFound
}

func (st *state) listContributions(opts contribution.ListOpts) ([]*contribution.Contribution, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	result := make([]*contribution.Contribution, 0)
	st.contributions.each(func(c *contribution.Contribution) bool {
		if opts.CauseID == 0 || c.CauseID == opts.CauseID {
			cp := *c
			result = append(result, &cp)
		}
		return true
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (st *state) createWithdrawal(r *withdrawal.Request) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	if !st.withdrawals.insert(r.ID, r.Clone()) {
		return fundledger.ErrAlreadyExists
	}
	return nil
}

func (st *state) getWithdrawal(requestID withdrawal.ID) (*withdrawal.Request, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	if r, ok := st.withdrawals.items[requestID]; ok {
		return r.Clone(), nil
	}
	return nil, fundledger.ErrWithdrawalRequestNotFound
}

func (st *state) listWithdrawals(opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	if st.closed {
		return nil, fundledger.ErrStoreClosed
	}
	result := make([]*withdrawal.Request, 0)
	st.withdrawals.each(func(r *withdrawal.Request) bool {
		if opts.CauseID != 0 && r.CauseID != opts.CauseID {
			return true
		}
		if opts.State != "" && r.State() != opts.State {
			return true
		}
		result = append(result, r.Clone())
		return true
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (st *state) updateWithdrawal(r *withdrawal.Request) error {
	if st.closed {
		return fundledger.ErrStoreClosed
	}
	if !st.withdrawals.replace(r.ID, r.Clone()) {
		return fundledger.ErrWithdrawalRequestNotFound
	}
	return nil
}

// page applies offset and limit. A zero limit means no limit.
func page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	if offset < 0 {
		offset = 0
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
