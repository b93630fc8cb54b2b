package reconcile

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// Reconciler merges source trees into live trees. A Reconciler holds no
// per-pass state and may be reused, but a single pass must not run
// concurrently with other mutations of the same live tree.
type Reconciler struct {
	logger   *slog.Logger
	observer Observer
	onRemove func(*html.Node)
	owner    func(n *html.Node, key string) bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for mismatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver adds an observer for live mutations. May be given several times.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		if o == nil {
			return
		}
		switch cur := r.observer.(type) {
		case nil:
			r.observer = o
		case multiObserver:
			r.observer = append(cur, o)
		default:
			r.observer = multiObserver{cur, o}
		}
	}
}

// OnRemove sets a hook called with every live node removed from the tree,
// after it has been detached. The hook must not mutate the live tree.
func OnRemove(fn func(*html.Node)) Option {
	return func(r *Reconciler) {
		r.onRemove = fn
	}
}

// WithOwner marks parts of live nodes as managed elsewhere, e.g. by a form
// binding. When own(n, key) is true, attribute key of n is left as is; an
// empty key leaves the children of n as they are.
func WithOwner(own func(n *html.Node, key string) bool) Option {
	return func(r *Reconciler) {
		r.owner = own
	}
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		logger: slog.Default().With("component", "reconcile"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile merges source into target and returns the live node.
//
// If target and source differ in kind or tag, target cannot be reused: source
// is moved into target's position and returned. Otherwise target is patched in
// place and returned. Source nodes that get inserted into the live tree are
// moved, not copied, so source must not be used after the call.
func (r *Reconciler) Reconcile(target, source *html.Node) *html.Node {
	if source == nil {
		return target
	}
	if target == nil {
		dom.Detach(source)
		adopt(source)
		return source
	}
	if target == source {
		return target
	}

	if !dom.SameKind(target, source) {
		r.replace(target, source)
		return source
	}

	r.patch(target, source)
	return target
}

// Merge patches target's attributes and children from source without ever
// replacing target. A tag mismatch is logged and leaves target untouched.
func (r *Reconciler) Merge(target, source *html.Node) {
	if target == nil || source == nil || target == source {
		return
	}
	if !dom.SameKind(target, source) {
		r.mismatch(target, source)
		return
	}
	r.patch(target, source)
}

// patch reconciles a same-kind pair.
func (r *Reconciler) patch(target, source *html.Node) {
	switch dom.KindOf(target) {
	case dom.KindText:
		r.setText(target, source.Data)
		return
	case dom.KindOther:
		target.Data = source.Data
		return
	}
	r.diffAttributes(target, source)
	if r.owns(target, "") {
		return
	}
	if dom.HasChildren(target) || dom.HasChildren(source) {
		r.diffChildren(target, source)
	}
}

// replace splices source in right after target and removes target.
func (r *Reconciler) replace(target, source *html.Node) {
	dom.Detach(source)
	adopt(source)
	if parent := target.Parent; parent != nil {
		parent.InsertBefore(source, target.NextSibling)
		parent.RemoveChild(target)
	}
	r.emit(Mutation{Op: OpReplaceNode, Node: source, Key: dom.Tag(target), Value: dom.Tag(source)})
	r.removed(target)
}

func (r *Reconciler) mismatch(target, source *html.Node) {
	r.logger.Warn("tag mismatch, subtree left unpatched",
		"target_kind", dom.KindOf(target).String(),
		"target_tag", dom.Tag(target),
		"source_kind", dom.KindOf(source).String(),
		"source_tag", dom.Tag(source),
	)
	r.emit(Mutation{Op: OpMismatch, Node: target, Key: dom.Tag(target), Value: dom.Tag(source)})
}

func (r *Reconciler) setText(target *html.Node, text string) {
	changed := target.Data != text
	target.Data = text
	if changed {
		r.emit(Mutation{Op: OpSetText, Node: target, Value: text})
	}
}

func (r *Reconciler) owns(n *html.Node, key string) bool {
	return r.owner != nil && r.owner(n, key)
}

func (r *Reconciler) emit(m Mutation) {
	if r.observer != nil {
		r.observer.Observe(m)
	}
}

func (r *Reconciler) removed(n *html.Node) {
	if r.onRemove != nil {
		r.onRemove(n)
	}
}
