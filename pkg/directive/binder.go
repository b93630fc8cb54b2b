package directive

import (
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
	"github.com/nimble-go/nimble/pkg/listener"
)

// Binder connects directive callbacks to a listener.Registry and remembers
// which subscriptions belong to which node and selector.
type Binder struct {
	reg   *listener.Registry
	bound map[*html.Node]map[string][]listener.Detach
}

// NewBinder creates a Binder over reg.
func NewBinder(reg *listener.Registry) *Binder {
	return &Binder{
		reg:   reg,
		bound: make(map[*html.Node]map[string][]listener.Detach),
	}
}

// Registry returns the underlying registry.
func (b *Binder) Registry() *listener.Registry { return b.reg }

// Listen subscribes fn to event on node. Internal listeners run before user
// listeners on the same node and event. A nil node binds nothing.
func (b *Binder) Listen(node *html.Node, selector, event string, fn func(*dom.Event), internal bool) {
	if node == nil || fn == nil {
		return
	}
	var opts []listener.SubscribeOption
	if internal {
		opts = append(opts, listener.Internal())
	}
	detach := b.reg.Subscribe(node, event, fn, opts...)

	bySelector := b.bound[node]
	if bySelector == nil {
		bySelector = make(map[string][]listener.Detach)
		b.bound[node] = bySelector
	}
	bySelector[selector] = append(bySelector[selector], detach)
}

// ReleaseSelector unsubscribes what was bound on node under selector.
func (b *Binder) ReleaseSelector(node *html.Node, selector string) {
	bySelector := b.bound[node]
	if bySelector == nil {
		return
	}
	for _, detach := range bySelector[selector] {
		detach()
	}
	delete(bySelector, selector)
	if len(bySelector) == 0 {
		delete(b.bound, node)
	}
}

// Release unsubscribes every listener on node and its descendants.
func (b *Binder) Release(node *html.Node) {
	dom.Walk(node, func(n *html.Node) bool {
		delete(b.bound, n)
		b.reg.UnsubscribeAllFromElement(n)
		return true
	})
}

// Apply attaches every pending subscription.
func (b *Binder) Apply() int { return b.reg.ApplyAll() }

// Bound returns the number of nodes holding bindings.
func (b *Binder) Bound() int { return len(b.bound) }
