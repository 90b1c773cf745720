package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// OTelFactory is a MetricFactory backed by an OpenTelemetry meter.
// Instruments are created once per name and cached.
type OTelFactory struct {
	meter      metric.Meter
	counters   sync.Map // string -> *otelCounter
	histograms sync.Map // string -> *otelHistogram
}

var _ MetricFactory = (*OTelFactory)(nil)

// NewOTelFactory returns a factory that creates instruments on meter. A nil
// meter falls back to the no-op meter.
func NewOTelFactory(meter metric.Meter) *OTelFactory {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("fundledger")
	}
	return &OTelFactory{meter: meter}
}

// Counter implements MetricFactory. Instrument errors degrade to a no-op
// counter.
func (f *OTelFactory) Counter(name string) Counter {
	if c, ok := f.counters.Load(name); ok {
		return c.(*otelCounter) //nolint:errcheck // map holds one type
	}
	inst, err := f.meter.Float64Counter(name, metric.WithUnit("1"))
	if err != nil {
		inst = noop.Float64Counter{}
	}
	actual, _ := f.counters.LoadOrStore(name, &otelCounter{inst: inst})
	return actual.(*otelCounter) //nolint:errcheck // map holds one type
}

// Histogram implements MetricFactory.
func (f *OTelFactory) Histogram(name string) Histogram {
	if h, ok := f.histograms.Load(name); ok {
		return h.(*otelHistogram) //nolint:errcheck // map holds one type
	}
	inst, err := f.meter.Float64Histogram(name)
	if err != nil {
		inst = noop.Float64Histogram{}
	}
	actual, _ := f.histograms.LoadOrStore(name, &otelHistogram{inst: inst})
	return actual.(*otelHistogram) //nolint:errcheck // map holds one type
}

type otelCounter struct {
	inst metric.Float64Counter
}

func (c *otelCounter) Inc()          { c.inst.Add(context.Background(), 1) }
func (c *otelCounter) Add(v float64) { c.inst.Add(context.Background(), v) }

type otelHistogram struct {
	inst metric.Float64Histogram
}

func (h *otelHistogram) Observe(v float64) { h.inst.Record(context.Background(), v) }
