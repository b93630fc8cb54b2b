package directive

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// Factory creates a directive instance.
type Factory func() Directive

// attributed selects every element carrying at least one attribute, root included.
const attributed = "descendant-or-self::*[@*]"

type entry struct {
	selectors []string
	factory   Factory
}

type binding struct {
	value     string
	directive Directive
}

// element is the directive state of one live node.
type element struct {
	directives map[int]Directive
	bindings   map[string]*binding
	all        []Directive
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver matches registered directives against the live tree.
type Resolver struct {
	binder     *Binder
	logger     *slog.Logger
	entries    []entry
	bySelector map[string]int
	elements   map[*html.Node]*element
}

// NewResolver creates a Resolver binding listeners through binder.
func NewResolver(binder *Binder, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		binder:     binder,
		logger:     slog.Default().With("component", "directive"),
		bySelector: make(map[string]int),
		elements:   make(map[*html.Node]*element),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a directive type selected by the given attribute names.
// A selector registered twice belongs to the last registration.
func (r *Resolver) Register(factory Factory, selectors ...string) {
	idx := len(r.entries)
	r.entries = append(r.entries, entry{selectors: selectors, factory: factory})
	for _, sel := range selectors {
		r.bySelector[sel] = idx
	}
}

// RegisterBuiltins registers the event, drag event and model directives.
func (r *Resolver) RegisterBuiltins() {
	r.Register(NewEventsDirective, EventSelectors...)
	r.Register(NewDragEventsDirective, DragEventSelectors...)
	r.Register(NewModelDirective, ModelSelector)
}

// Selectors returns the registered selectors.
func (r *Resolver) Selectors() []string {
	out := make([]string, 0, len(r.bySelector))
	for i, e := range r.entries {
		for _, sel := range e.selectors {
			if r.bySelector[sel] == i {
				out = append(out, sel)
			}
		}
	}
	return out
}

// Resolve binds directives for every matching attribute under root and
// returns the number of bindings created or rebuilt. Unchanged bindings are
// kept. Bindings whose attribute or node is gone are destroyed. Directive
// errors do not stop the pass and are returned joined.
func (r *Resolver) Resolve(root *html.Node, scope Scope) (int, error) {
	if root == nil {
		return 0, nil
	}
	nodes, err := htmlquery.QueryAll(root, attributed)
	if err != nil {
		return 0, fmt.Errorf("query directive attributes: %w", err)
	}

	var errs []error
	resolved := 0
	seen := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		matched := r.matching(n)
		el := r.elements[n]
		if len(matched) == 0 && el == nil {
			continue
		}
		seen[n] = true
		if el == nil {
			el = &element{
				directives: make(map[int]Directive),
				bindings:   make(map[string]*binding),
			}
			r.elements[n] = el
		}

		present := make(map[string]bool, len(matched))
		for _, a := range matched {
			present[a.Key] = true
		}
		for sel, b := range el.bindings {
			if !present[sel] {
				r.unbind(n, el, sel, b)
			}
		}
		for _, d := range el.all {
			d.State().Scope = scope
		}

		for _, a := range matched {
			sel := a.Key
			if b, ok := el.bindings[sel]; ok {
				if b.value == a.Val {
					if u, ok := b.directive.(Updater); ok {
						u.Update(sel, a.Val)
					}
					continue
				}
				r.unbind(n, el, sel, b)
			}

			d := r.instance(n, el, r.bySelector[sel])
			d.State().Scope = scope
			d.State().SetValueOfSelector(sel, a.Val)
			if err := d.Resolve(sel, a.Val); err != nil {
				r.logger.Warn("directive failed", "selector", sel, "tag", n.Data, "error", err)
				errs = append(errs, fmt.Errorf("%s on <%s>: %w", sel, n.Data, err))
			}
			el.bindings[sel] = &binding{value: a.Val, directive: d}
			resolved++
		}
	}

	for n, el := range r.elements {
		if seen[n] && len(el.bindings) > 0 {
			continue
		}
		for sel, b := range el.bindings {
			r.unbind(n, el, sel, b)
		}
		delete(r.elements, n)
	}

	return resolved, errors.Join(errs...)
}

// Release destroys the bindings of node and its descendants and unsubscribes
// their listeners. It is meant to be the reconciler's removal hook.
func (r *Resolver) Release(node *html.Node) {
	dom.Walk(node, func(n *html.Node) bool {
		if el := r.elements[n]; el != nil {
			for sel, b := range el.bindings {
				b.directive.Destroy(sel)
			}
			delete(r.elements, n)
		}
		return true
	})
	r.binder.Release(node)
}

// Bindings returns the number of live bindings.
func (r *Resolver) Bindings() int {
	total := 0
	for _, el := range r.elements {
		total += len(el.bindings)
	}
	return total
}

// Owns reports whether a directive bound to node manages key. It fits
// reconcile.WithOwner.
func (r *Resolver) Owns(node *html.Node, key string) bool {
	el := r.elements[node]
	if el == nil {
		return false
	}
	for _, b := range el.bindings {
		if o, ok := b.directive.(Owner); ok && o.Owns(key) {
			return true
		}
	}
	return false
}

// DirectivesOf returns the directive instances bound to node.
func (r *Resolver) DirectivesOf(node *html.Node) []Directive {
	if el := r.elements[node]; el != nil {
		return el.all
	}
	return nil
}

func (r *Resolver) matching(n *html.Node) []html.Attribute {
	var out []html.Attribute
	for _, a := range n.Attr {
		if _, ok := r.bySelector[a.Key]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (r *Resolver) instance(n *html.Node, el *element, idx int) Directive {
	if d, ok := el.directives[idx]; ok {
		return d
	}
	d := r.entries[idx].factory()
	base := d.State()
	base.Element = n
	base.binder = r.binder
	el.directives[idx] = d
	el.all = append(el.all, d)
	for _, other := range el.all {
		other.State().All = el.all
	}
	return d
}

func (r *Resolver) unbind(n *html.Node, el *element, sel string, b *binding) {
	b.directive.Destroy(sel)
	r.binder.ReleaseSelector(n, sel)
	b.directive.State().forget(sel)
	delete(el.bindings, sel)
}
