package listener

import (
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// Detach cancels one subscription. It is safe to call more than once.
type Detach func()

// Hook runs before or after a subscription's callback.
type Hook func(*dom.Event)

// Record is one listener subscription.
type Record struct {
	target   *html.Node
	event    string
	callback func(*dom.Event)
	before   Hook
	after    Hook

	internal bool
	capture  bool
	once     bool
	passive  bool

	applied  bool
	removed  bool
	listener *dom.Listener
	reg      *Registry
}

// Target returns the node the record is bound to.
func (r *Record) Target() *html.Node { return r.target }

// Event returns the event name.
func (r *Record) Event() string { return r.event }

// Internal reports whether the record is a framework listener.
func (r *Record) Internal() bool { return r.internal }

// Applied reports whether the real listener is attached.
func (r *Record) Applied() bool { return r.applied }

// Removed reports whether the record left the registry.
func (r *Record) Removed() bool { return r.removed }

// SetHooks replaces the hooks run around the callback. They take effect on
// the next event, including for records already applied. A nil hook clears it.
func (r *Record) SetHooks(before, after Hook) {
	r.before = before
	r.after = after
}

// handle is the function attached to the tree. Hooks are read at call time.
func (r *Record) handle(e *dom.Event) {
	if r.before != nil {
		r.before(e)
	}
	r.callback(e)
	if r.after != nil {
		r.after(e)
	}
	if r.once && r.reg != nil {
		r.reg.Unsubscribe(r)
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*Record)

// Internal marks a framework listener, attached before user listeners.
func Internal() SubscribeOption {
	return func(r *Record) { r.internal = true }
}

// Capture attaches the listener for the capture phase.
func Capture() SubscribeOption {
	return func(r *Record) { r.capture = true }
}

// Once removes the subscription after its first event.
func Once() SubscribeOption {
	return func(r *Record) { r.once = true }
}

// Passive attaches a listener that cannot prevent the default action.
func Passive() SubscribeOption {
	return func(r *Record) { r.passive = true }
}

// WithHooks sets before and after hooks at subscription time.
func WithHooks(before, after Hook) SubscribeOption {
	return func(r *Record) { r.SetHooks(before, after) }
}
