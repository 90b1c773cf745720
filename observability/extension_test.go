package observability_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xraph/fundledger"
	"github.com/xraph/fundledger/auth"
	"github.com/xraph/fundledger/observability"
	"github.com/xraph/fundledger/store/memory"
	"github.com/xraph/fundledger/types"
)

type fakeMetric struct {
	mu  sync.Mutex
	sum float64
	n   int
}

func (f *fakeMetric) Inc()              { f.Add(1) }
func (f *fakeMetric) Add(v float64)     { f.mu.Lock(); f.sum += v; f.n++; f.mu.Unlock() }
func (f *fakeMetric) Observe(v float64) { f.Add(v) }

func (f *fakeMetric) total() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sum
}

type fakeFactory struct {
	mu      sync.Mutex
	metrics map[string]*fakeMetric
}

func newFakeFactory() *fakeFactory { return &fakeFactory{metrics: map[string]*fakeMetric{}} }

func (f *fakeFactory) get(name string) *fakeMetric {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.metrics[name]
	if !ok {
		m = &fakeMetric{}
		f.metrics[name] = m
	}
	return m
}

func (f *fakeFactory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) observability.Histogram { return f.get(name) }

func as(p types.Principal) context.Context {
	return auth.WithPrincipals(context.Background(), p)
}

func TestMetricsFollowLedgerActivity(t *testing.T) {
	factory := newFakeFactory()
	l := fundledger.New(memory.New(),
		fundledger.WithPlugin(observability.NewMetricsExtension(factory)),
	)
	ctx := context.Background()
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	require.NoError(t, l.Initialize(as("admin"), "admin"))
	causeID, err := l.AddCause(as("admin"), fundledger.AddCauseInput{Name: "Dog", Beneficiary: "ben"})
	require.NoError(t, err)
	_, err = l.Donate(as("donor"), "donor", causeID, 300)
	require.NoError(t, err)
	_, err = l.Donate(as("donor"), "donor", causeID, 200)
	require.NoError(t, err)

	reqID, err := l.CreateWithdrawalRequest(as("ben"), causeID, "ben", 120, "food")
	require.NoError(t, err)
	require.NoError(t, l.ApproveWithdrawalRequest(as("admin"), reqID))
	require.NoError(t, l.SettleWithdrawalRequest(ctx, reqID))
	require.Error(t, l.SettleWithdrawalRequest(ctx, reqID))

	_, err = l.Donate(as("donor"), "donor", causeID, 0)
	require.Error(t, err)
	_, err = l.ToggleCauseStatus(as("admin"), causeID)
	require.NoError(t, err)

	assert.Equal(t, 1.0, factory.get("fundledger.ledger.initialized").total())
	assert.Equal(t, 1.0, factory.get("fundledger.cause.created").total())
	assert.Equal(t, 1.0, factory.get("fundledger.cause.deactivated").total())
	assert.Equal(t, 2.0, factory.get("fundledger.contribution.recorded").total())
	assert.Equal(t, 500.0, factory.get("fundledger.contribution.amount").total())
	assert.Equal(t, 1.0, factory.get("fundledger.withdrawal.settled").total())
	assert.Equal(t, 120.0, factory.get("fundledger.withdrawal.settled_amount").total())
	assert.Equal(t, 1.0, factory.get("fundledger.rejected.withdrawal_request_already_processed").total())
	assert.Equal(t, 1.0, factory.get("fundledger.rejected.insufficient_funds").total())
	assert.Zero(t, factory.get("fundledger.operation.failures").total())
}

func TestRejectionBuckets(t *testing.T) {
	factory := newFakeFactory()
	ext := observability.NewMetricsExtension(factory)
	ctx := context.Background()

	require.NoError(t, ext.OnOperationRejected(ctx, "initialize", fundledger.ErrAlreadyInitialized))
	require.NoError(t, ext.OnOperationRejected(ctx, "donate", fundledger.ErrStoreClosed))

	assert.Equal(t, 1.0, factory.get("fundledger.rejected.other").total())
	assert.Equal(t, 1.0, factory.get("fundledger.operation.failures").total())
}

func TestOTelFactory(t *testing.T) {
	f := observability.NewOTelFactory(noop.NewMeterProvider().Meter("test"))

	c := f.Counter("fundledger.cause.created")
	assert.Same(t, c, f.Counter("fundledger.cause.created"), "instruments are cached by name")
	c.Inc()
	c.Add(2)

	h := f.Histogram("fundledger.contribution.amount")
	assert.Same(t, h, f.Histogram("fundledger.contribution.amount"))
	h.Observe(10)

	ext := observability.NewMetricsExtension(observability.NewOTelFactory(nil))
	assert.NoError(t, ext.OnInit(context.Background(), nil))
}
