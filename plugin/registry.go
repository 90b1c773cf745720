package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
	"github.com/xraph/fundledger/withdrawal"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration and cached per
// interface.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onLedgerInitialized    []OnLedgerInitialized
	onCauseCreated         []OnCauseCreated
	onCauseStatusChanged   []OnCauseStatusChanged
	onContributionRecorded []OnContributionRecorded
	onWithdrawalRequested  []OnWithdrawalRequested
	onWithdrawalApproved   []OnWithdrawalApproved
	onWithdrawalSettled    []OnWithdrawalSettled
	onOperationRejected    []OnOperationRejected
	transferProviders      []TransferProvider
	onTransferFailed       []OnTransferFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLedgerInitialized); ok {
		r.onLedgerInitialized = append(r.onLedgerInitialized, v)
	}
	if v, ok := p.(OnCauseCreated); ok {
		r.onCauseCreated = append(r.onCauseCreated, v)
	}
	if v, ok := p.(OnCauseStatusChanged); ok {
		r.onCauseStatusChanged = append(r.onCauseStatusChanged, v)
	}
	if v, ok := p.(OnContributionRecorded); ok {
		r.onContributionRecorded = append(r.onContributionRecorded, v)
	}
	if v, ok := p.(OnWithdrawalRequested); ok {
		r.onWithdrawalRequested = append(r.onWithdrawalRequested, v)
	}
	if v, ok := p.(OnWithdrawalApproved); ok {
		r.onWithdrawalApproved = append(r.onWithdrawalApproved, v)
	}
	if v, ok := p.(OnWithdrawalSettled); ok {
		r.onWithdrawalSettled = append(r.onWithdrawalSettled, v)
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onOperationRejected = append(r.onOperationRejected, v)
	}
	if v, ok := p.(TransferProvider); ok {
		r.transferProviders = append(r.transferProviders, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnLedgerInitialized", reflect.TypeFor[OnLedgerInitialized]()},
	{"OnCauseCreated", reflect.TypeFor[OnCauseCreated]()},
	{"OnCauseStatusChanged", reflect.TypeFor[OnCauseStatusChanged]()},
	{"OnContributionRecorded", reflect.TypeFor[OnContributionRecorded]()},
	{"OnWithdrawalRequested", reflect.TypeFor[OnWithdrawalRequested]()},
	{"OnWithdrawalApproved", reflect.TypeFor[OnWithdrawalApproved]()},
	{"OnWithdrawalSettled", reflect.TypeFor[OnWithdrawalSettled]()},
	{"OnOperationRejected", reflect.TypeFor[OnOperationRejected]()},
	{"TransferProvider", reflect.TypeFor[TransferProvider]()},
	{"OnTransferFailed", reflect.TypeFor[OnTransferFailed]()},
}

// implementedInterfaces lists the hook interfaces p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

// snapshot copies a cached hook list under the read lock.
func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(*list))
	copy(out, *list)
	return out
}

// emit calls fn for every plugin in hooks, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitLedgerInitialized emits a ledger initialized event.
func (r *Registry) EmitLedgerInitialized(ctx context.Context, admin types.Principal) {
	emit(ctx, r, "OnLedgerInitialized", snapshot(r, &r.onLedgerInitialized), func(p OnLedgerInitialized) error {
		return p.OnLedgerInitialized(ctx, admin)
	})
}

// EmitCauseCreated emits a cause created event.
func (r *Registry) EmitCauseCreated(ctx context.Context, c *cause.Cause) {
	emit(ctx, r, "OnCauseCreated", snapshot(r, &r.onCauseCreated), func(p OnCauseCreated) error {
		return p.OnCauseCreated(ctx, c.Clone())
	})
}

// EmitCauseStatusChanged emits a cause status changed event.
func (r *Registry) EmitCauseStatusChanged(ctx context.Context, c *cause.Cause) {
	emit(ctx, r, "OnCauseStatusChanged", snapshot(r, &r.onCauseStatusChanged), func(p OnCauseStatusChanged) error {
		return p.OnCauseStatusChanged(ctx, c.Clone())
	})
}

// EmitContributionRecorded emits a contribution recorded event.
func (r *Registry) EmitContributionRecorded(ctx context.Context, c *contribution.Contribution) {
	emit(ctx, r, "OnContributionRecorded", snapshot(r, &r.onContributionRecorded), func(p OnContributionRecorded) error {
		cp := *c
		return p.OnContributionRecorded(ctx, &cp)
	})
}

// EmitWithdrawalRequested emits a withdrawal requested event.
func (r *Registry) EmitWithdrawalRequested(ctx context.Context, req *withdrawal.Request) {
	emit(ctx, r, "OnWithdrawalRequested", snapshot(r, &r.onWithdrawalRequested), func(p OnWithdrawalRequested) error {
		return p.OnWithdrawalRequested(ctx, req.Clone())
	})
}

// EmitWithdrawalApproved emits a withdrawal approved event.
func (r *Registry) EmitWithdrawalApproved(ctx context.Context, req *withdrawal.Request) {
	emit(ctx, r, "OnWithdrawalApproved", snapshot(r, &r.onWithdrawalApproved), func(p OnWithdrawalApproved) error {
		return p.OnWithdrawalApproved(ctx, req.Clone())
	})
}

// EmitWithdrawalSettled emits a withdrawal settled event.
func (r *Registry) EmitWithdrawalSettled(ctx context.Context, req *withdrawal.Request) {
	emit(ctx, r, "OnWithdrawalSettled", snapshot(r, &r.onWithdrawalSettled), func(p OnWithdrawalSettled) error {
		return p.OnWithdrawalSettled(ctx, req.Clone())
	})
}

// EmitOperationRejected emits an operation rejected event.
func (r *Registry) EmitOperationRejected(ctx context.Context, op string, opErr error) {
	emit(ctx, r, "OnOperationRejected", snapshot(r, &r.onOperationRejected), func(p OnOperationRejected) error {
		return p.OnOperationRejected(ctx, op, opErr)
	})
}

// DispatchTransfer hands t to every TransferProvider. Provider errors are
// logged and reported through OnTransferFailed; the number of providers that
// succeeded is returned.
func (r *Registry) DispatchTransfer(ctx context.Context, t *transfer.Transfer) int {
	providers := snapshot(r, &r.transferProviders)
	failed := snapshot(r, &r.onTransferFailed)

	ok := 0
	for _, p := range providers {
		cp := *t
		err := r.callWithTimeout(ctx, p.Name(), func() error { return p.Transfer(ctx, &cp) })
		if err == nil {
			ok++
			continue
		}
		r.logger.Error("transfer provider failed",
			"plugin", p.Name(),
			"transfer_id", t.ID.String(),
			"kind", string(t.Kind),
			"amount", int64(t.Amount),
			"error", err,
		)
		emit(ctx, r, "OnTransferFailed", failed, func(h OnTransferFailed) error {
			cp := *t
			return h.OnTransferFailed(ctx, &cp, err)
		})
	}
	return ok
}

// HasTransferProviders reports whether any TransferProvider is registered.
func (r *Registry) HasTransferProviders() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transferProviders) > 0
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
