package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nimble-go/nimble/pkg/listener"
	"github.com/nimble-go/nimble/pkg/reconcile"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "nimble").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures Metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "nimble",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. It implements reconcile.Observer and
// listener.Observer and is safe for concurrent use.
type Metrics struct {
	mutations       *prometheus.CounterVec
	listeners       *prometheus.CounterVec
	listenersActive prometheus.Gauge
	renderDuration  *prometheus.HistogramVec
	renderErrors    *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	events          *prometheus.CounterVec
	wsErrors        *prometheus.CounterVec
}

var (
	_ reconcile.Observer = (*Metrics)(nil)
	_ listener.Observer  = (*Metrics)(nil)
)

// New registers the collectors and returns them.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of live tree mutations applied by reconciliation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		listeners: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_total",
			Help:        "Total number of listener lifecycle transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"change"}),

		listenersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_active",
			Help:        "Number of listeners currently attached",
			ConstLabels: config.ConstLabels,
		}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"scope"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"scope"}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_active",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "ws_errors_total",
			Help:        "Total number of websocket errors",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// Observe implements reconcile.Observer.
func (m *Metrics) Observe(mu reconcile.Mutation) {
	m.mutations.WithLabelValues(mu.Op.String()).Inc()
}

// ListenerChanged implements listener.Observer.
func (m *Metrics) ListenerChanged(c listener.Change, r *listener.Record) {
	m.listeners.WithLabelValues(c.String()).Inc()
	switch c {
	case listener.Applied:
		m.listenersActive.Inc()
	case listener.Unsubscribed:
		if r.Applied() {
			m.listenersActive.Dec()
		}
	}
}

// ObserveRender records a render pass. Its signature matches scope.RenderHook.
func (m *Metrics) ObserveRender(scope string, d time.Duration, err error) {
	m.renderDuration.WithLabelValues(scope).Observe(d.Seconds())
	if err != nil {
		m.renderErrors.WithLabelValues(scope).Inc()
	}
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() { m.sessionsActive.Inc() }

// SessionClosed records the end of a live session.
func (m *Metrics) SessionClosed() { m.sessionsActive.Dec() }

// EventDispatched records a client event.
func (m *Metrics) EventDispatched(event string) {
	m.events.WithLabelValues(event).Inc()
}

// WSError records a websocket error of the given kind.
func (m *Metrics) WSError(kind string) {
	m.wsErrors.WithLabelValues(kind).Inc()
}
