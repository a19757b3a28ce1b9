package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/resolve"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "blockguard"

// Call outcomes on the calls_total metric.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeBlocked = "blocked"
)

// Observable is anything that reports guard events to a callback.
// *guard.Guard implements it.
type Observable interface {
	OnEvent(fn func(context.Context, core.Event))
}

// Metrics holds the guard's Prometheus collectors.
type Metrics struct {
	calls         *prometheus.CounterVec
	blockOutcomes *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	resolutions   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// Option configures Metrics.
type Option interface {
	apply(*config)
}

type config struct {
	namespace  string
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithNamespace sets the metric namespace. Default: "blockguard".
func WithNamespace(ns string) Option {
	return optionFunc(func(c *config) {
		c.namespace = ns
	})
}

// WithRegisterer registers the collectors with reg instead of the default
// registry. When reg is also a Gatherer it backs Handler.
func WithRegisterer(reg prometheus.Registerer) Option {
	return optionFunc(func(c *config) {
		c.registerer = reg
		if g, ok := reg.(prometheus.Gatherer); ok {
			c.gatherer = g
		}
	})
}

// New creates and registers the guard metrics. It panics if a collector with
// the same name is already registered.
func New(opts ...Option) *Metrics {
	cfg := &config{
		namespace:  DefaultNamespace,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "calls_total",
				Help:      "Guarded calls by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		blockOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "block_outcomes_total",
				Help:      "Blocked calls by resource and how the block was resolved",
			},
			[]string{"resource", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.namespace,
				Name:      "call_duration_seconds",
				Help:      "Duration of guarded calls that were not blocked",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"resource"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "handler_resolutions_total",
				Help:      "Block handler lookups by handler name and result",
			},
			[]string{"handler", "result"},
		),
		gatherer: cfg.gatherer,
	}

	cfg.registerer.MustRegister(m.calls, m.blockOutcomes, m.duration, m.resolutions)
	return m
}

// Attach subscribes m to the events of g.
func (m *Metrics) Attach(g Observable) {
	g.OnEvent(func(_ context.Context, e core.Event) {
		m.Observe(e)
	})
}

// Observe records one guard event.
func (m *Metrics) Observe(e core.Event) {
	switch ev := e.(type) {
	case *core.CallPassed:
		m.calls.WithLabelValues(ev.Resource, OutcomePassed).Inc()
		m.duration.WithLabelValues(ev.Resource).Observe(ev.Duration.Seconds())
	case *core.CallFailed:
		m.calls.WithLabelValues(ev.Resource, OutcomeFailed).Inc()
		m.duration.WithLabelValues(ev.Resource).Observe(ev.Duration.Seconds())
	case *core.CallBlocked:
		m.calls.WithLabelValues(ev.Resource, OutcomeBlocked).Inc()
	case *core.BlockHandled:
		m.blockOutcomes.WithLabelValues(ev.Resource, string(core.OutcomeHandled)).Inc()
	case *core.BlockEscalated:
		m.blockOutcomes.WithLabelValues(ev.Resource, string(core.OutcomeEscalated)).Inc()
	case *core.HandlerFailed:
		m.blockOutcomes.WithLabelValues(ev.Resource, string(core.OutcomeHandlerFailed)).Inc()
	}
}

// Report counts a handler resolution. It makes Metrics a resolve.Reporter.
func (m *Metrics) Report(d resolve.Diagnostic) {
	m.resolutions.WithLabelValues(d.Handler, string(d.Kind)).Inc()
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var _ resolve.Reporter = (*Metrics)(nil)
