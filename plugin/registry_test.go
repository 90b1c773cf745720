package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/plugin"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/types"
)

type recorder struct {
	name string

	mu     sync.Mutex
	events []string
	fail   error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnLedgerInitialized(_ context.Context, admin types.Principal) error {
	r.add("initialized:" + admin.String())
	return nil
}

func (r *recorder) OnCauseCreated(_ context.Context, c *cause.Cause) error {
	r.add("cause:" + c.ID.String())
	c.Name = "mutated"
	return nil
}

func (r *recorder) Transfer(_ context.Context, t *transfer.Transfer) error {
	r.add("transfer:" + t.Reference)
	return r.fail
}

func (r *recorder) OnTransferFailed(_ context.Context, t *transfer.Transfer, _ error) error {
	r.add("failed:" + t.Reference)
	return nil
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnLedgerInitialized(ctx context.Context, _ types.Principal) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&recorder{name: "a"}))
	assert.Error(t, r.Register(&recorder{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestEmitDeliversCopies(t *testing.T) {
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))

	ctx := context.Background()
	r.EmitLedgerInitialized(ctx, "admin")

	c := &cause.Cause{ID: 1, Name: "Dog"}
	r.EmitCauseCreated(ctx, c)

	assert.Equal(t, []string{"initialized:admin", "cause:1"}, rec.got())
	assert.Equal(t, "Dog", c.Name, "plugins must not mutate ledger records")
}

func TestDispatchTransfer(t *testing.T) {
	r := plugin.NewRegistry()
	ok := &recorder{name: "ok"}
	bad := &recorder{name: "bad", fail: errors.New("rail down")}
	require.NoError(t, r.Register(ok))
	require.NoError(t, r.Register(bad))
	assert.True(t, r.HasTransferProviders())

	tr := &transfer.Transfer{ID: id.NewTransferID(), Reference: "contribution:1"}
	n := r.DispatchTransfer(context.Background(), tr)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"transfer:contribution:1", "failed:contribution:1"}, ok.got())
	assert.Equal(t, []string{"transfer:contribution:1", "failed:contribution:1"}, bad.got())
}

func TestHookTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitLedgerInitialized(context.Background(), "admin")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestOperationID(t *testing.T) {
	_, ok := plugin.OperationIDFrom(context.Background())
	assert.False(t, ok)

	op := id.NewOperationID()
	got, ok := plugin.OperationIDFrom(plugin.WithOperationID(context.Background(), op))
	require.True(t, ok)
	assert.Equal(t, op.String(), got.String())
}
