package scope

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/directive"
	"github.com/nimble-go/nimble/pkg/dom"
	"github.com/nimble-go/nimble/pkg/listener"
	"github.com/nimble-go/nimble/pkg/reconcile"
)

// ScopeAttr marks the root element of a scope's tree.
const ScopeAttr = "data-nimble-scope"

// view is one live tree with its template and bindings.
type view struct {
	name     string
	template string
	root     *html.Node
	doc      *dom.Document
	registry *listener.Registry
	resolver *directive.Resolver
	rec      *reconcile.Reconciler
	stats    *reconcile.Stats
	tracer   trace.Tracer
	logger   *slog.Logger
	onRender RenderHook
}

func newView(name, tag, template string, cfg *config) *view {
	root := dom.Element(tag, dom.Attrs(ScopeAttr, name))
	doc := dom.NewDocument(root)
	doc.SetLogger(cfg.logger)

	regOpts := []listener.Option{listener.WithLogger(cfg.logger)}
	if cfg.listeners != nil {
		regOpts = append(regOpts, listener.WithObserver(cfg.listeners))
	}
	registry := listener.New(doc, regOpts...)

	resolver := directive.NewResolver(directive.NewBinder(registry), directive.WithResolverLogger(cfg.logger))
	resolver.RegisterBuiltins()

	stats := reconcile.NewStats()
	recOpts := []reconcile.Option{
		reconcile.WithLogger(cfg.logger),
		reconcile.WithObserver(stats),
		reconcile.OnRemove(resolver.Release),
		reconcile.WithOwner(resolver.Owns),
	}
	for _, o := range cfg.mutations {
		recOpts = append(recOpts, reconcile.WithObserver(o))
	}

	return &view{
		name:     name,
		template: template,
		root:     root,
		doc:      doc,
		registry: registry,
		resolver: resolver,
		rec:      reconcile.New(recOpts...),
		stats:    stats,
		tracer:   cfg.tracer,
		logger:   cfg.logger.With("scope", name),
		onRender: cfg.onRender,
	}
}

// render brings the live tree in line with the template. self is the scope
// directives resolve against.
func (v *view) render(ctx context.Context, self directive.Scope, eval func(string) (any, error)) (err error) {
	start := time.Now()
	_, span := v.tracer.Start(ctx, "nimble.render", trace.WithAttributes(
		attribute.String("nimble.scope", v.name),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if v.onRender != nil {
			v.onRender(v.name, time.Since(start), err)
		}
	}()

	markup, err := interpolate(v.template, eval)
	if err != nil {
		return err
	}
	source, err := dom.ParseInto(v.root.Data, markup)
	if err != nil {
		return fmt.Errorf("render %s: %w", v.name, err)
	}
	source.Attr = append([]html.Attribute(nil), v.root.Attr...)

	v.stats.Reset()
	v.root = v.rec.Reconcile(v.root, source)
	v.doc.SetRoot(v.root)

	resolved, resolveErr := v.resolver.Resolve(v.root, self)
	applied := v.registry.ApplyAll()

	span.SetAttributes(
		attribute.Int("nimble.mutations", v.stats.Total()),
		attribute.Int("nimble.directives_resolved", resolved),
		attribute.Int("nimble.listeners_applied", applied),
	)
	v.logger.Debug("rendered",
		"mutations", v.stats.Total(),
		"destructive", v.stats.Destructive(),
		"resolved", resolved,
		"applied", applied,
	)
	if resolveErr != nil {
		return fmt.Errorf("render %s: %w", v.name, resolveErr)
	}
	return nil
}

// clear empties the live tree and drops every binding.
func (v *view) clear() {
	for c := v.root.FirstChild; c != nil; {
		next := c.NextSibling
		v.root.RemoveChild(c)
		v.resolver.Release(c)
		c = next
	}
	v.registry.UnsubscribeAll()
}

// dispatch delivers an event to the element at path.
func (v *view) dispatch(ctx context.Context, path, typ string, detail map[string]any) (bool, error) {
	target := dom.Resolve(v.root, path)
	if target == nil {
		return false, fmt.Errorf("%s: no element at path %q", v.name, path)
	}
	return v.doc.Dispatch(ctx, target, dom.NewEvent(typ, bubbles(typ), detail)), nil
}

func (v *view) html() string { return dom.Render(v.root) }

// bubbles reports whether typ bubbles in browsers.
func bubbles(typ string) bool {
	switch typ {
	case "focus", "blur", "mouseenter", "mouseleave", "scroll":
		return false
	}
	return true
}
