package scope

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nimble-go/nimble/pkg/listener"
	"github.com/nimble-go/nimble/pkg/reconcile"
)

const tracerName = "nimble"

// RenderHook is called after every render with its duration and error.
type RenderHook func(scope string, d time.Duration, err error)

type config struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	script    string
	state     map[string]any
	mutations []reconcile.Observer
	listeners listener.Observer
	onRender  RenderHook
}

// Option configures a Page.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: slog.Default().With("component", "scope"),
		tracer: otel.Tracer(tracerName),
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used for render spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithScript sets the JavaScript run once to set up page state.
func WithScript(src string) Option {
	return func(c *config) {
		c.script = src
	}
}

// WithState sets initial global variables.
func WithState(state map[string]any) Option {
	return func(c *config) {
		c.state = state
	}
}

// WithMutationObserver adds an observer for live tree mutations.
func WithMutationObserver(o reconcile.Observer) Option {
	return func(c *config) {
		if o != nil {
			c.mutations = append(c.mutations, o)
		}
	}
}

// WithListenerObserver sets the listener lifecycle observer.
func WithListenerObserver(o listener.Observer) Option {
	return func(c *config) {
		c.listeners = o
	}
}

// WithRenderHook sets a hook called after every render.
func WithRenderHook(hook RenderHook) Option {
	return func(c *config) {
		c.onRender = hook
	}
}
