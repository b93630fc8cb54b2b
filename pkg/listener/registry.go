package listener

import (
	"log/slog"
	"sort"

	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// EventTarget is where applied listeners are attached. *dom.Document
// implements it.
type EventTarget interface {
	AddEventListener(n *html.Node, typ string, l *dom.Listener)
	RemoveEventListener(n *html.Node, typ string, l *dom.Listener) bool
}

// Change is a record lifecycle transition reported to an Observer.
type Change uint8

const (
	Subscribed Change = iota
	Applied
	Unsubscribed
)

// String returns the string representation of the Change.
func (c Change) String() string {
	switch c {
	case Subscribed:
		return "subscribed"
	case Applied:
		return "applied"
	case Unsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

// Observer is notified of record lifecycle transitions.
type Observer interface {
	ListenerChanged(c Change, r *Record)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(reg *Registry) {
		if logger != nil {
			reg.logger = logger
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(reg *Registry) {
		reg.observer = o
	}
}

// Registry records subscriptions and attaches them to an EventTarget.
type Registry struct {
	target   EventTarget
	records  []*Record
	logger   *slog.Logger
	observer Observer
}

// New creates a Registry attaching listeners to target.
func New(target EventTarget, opts ...Option) *Registry {
	reg := &Registry{
		target: target,
		logger: slog.Default().With("component", "listener"),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Subscribe records a pending subscription of callback to event on node and
// returns its Detach handle. The listener is attached by the next ApplyAll.
// A nil node or callback records nothing and returns a no-op handle.
func (reg *Registry) Subscribe(node *html.Node, event string, callback func(*dom.Event), opts ...SubscribeOption) Detach {
	rec := reg.subscribe(node, event, callback, opts...)
	if rec == nil {
		return func() {}
	}
	return func() { reg.Unsubscribe(rec) }
}

// SubscribeRecord is like Subscribe but returns the record, or nil when
// nothing was recorded.
func (reg *Registry) SubscribeRecord(node *html.Node, event string, callback func(*dom.Event), opts ...SubscribeOption) *Record {
	return reg.subscribe(node, event, callback, opts...)
}

func (reg *Registry) subscribe(node *html.Node, event string, callback func(*dom.Event), opts ...SubscribeOption) *Record {
	if node == nil || callback == nil {
		return nil
	}
	rec := &Record{
		target:   node,
		event:    event,
		callback: callback,
		reg:      reg,
	}
	for _, opt := range opts {
		opt(rec)
	}
	reg.records = append(reg.records, rec)
	reg.notify(Subscribed, rec)
	return rec
}

// ApplyAll attaches every pending record and returns how many were attached.
// Internal records are attached first; order is stable otherwise.
func (reg *Registry) ApplyAll() int {
	var pending []*Record
	for _, rec := range reg.records {
		if !rec.applied {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		return 0
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].internal && !pending[j].internal
	})

	for _, rec := range pending {
		rec.listener = &dom.Listener{
			Handle:  rec.handle,
			Capture: rec.capture,
			Once:    rec.once,
			Passive: rec.passive,
		}
		reg.target.AddEventListener(rec.target, rec.event, rec.listener)
		rec.applied = true
		reg.notify(Applied, rec)
	}
	reg.logger.Debug("listeners applied", "count", len(pending), "total", len(reg.records))
	return len(pending)
}

// Unsubscribe detaches rec if it was applied and removes it from the
// registry. Unknown or already removed records are ignored.
func (reg *Registry) Unsubscribe(rec *Record) {
	if rec == nil || rec.removed || rec.reg != reg {
		return
	}
	for i, r := range reg.records {
		if r == rec {
			reg.records = append(reg.records[:i], reg.records[i+1:]...)
			break
		}
	}
	reg.release(rec)
}

// UnsubscribeAll detaches and removes every record, most recent first.
func (reg *Registry) UnsubscribeAll() {
	for len(reg.records) > 0 {
		last := len(reg.records) - 1
		rec := reg.records[last]
		reg.records[last] = nil
		reg.records = reg.records[:last]
		reg.release(rec)
	}
}

// UnsubscribeAllFromElement removes every record bound to exactly node,
// detaching the applied ones. Records for other nodes are unaffected.
func (reg *Registry) UnsubscribeAllFromElement(node *html.Node) int {
	if node == nil {
		return 0
	}
	kept := reg.records[:0]
	var dropped []*Record
	for _, rec := range reg.records {
		if rec.target == node {
			dropped = append(dropped, rec)
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(reg.records); i++ {
		reg.records[i] = nil
	}
	reg.records = kept
	for _, rec := range dropped {
		reg.release(rec)
	}
	return len(dropped)
}

// AddElementActions sets hooks on the first record bound to node. When node
// has several subscriptions, which one receives the hooks is unspecified
// beyond being the earliest still registered.
func (reg *Registry) AddElementActions(node *html.Node, before, after Hook) bool {
	if node == nil || (before == nil && after == nil) {
		return false
	}
	for _, rec := range reg.records {
		if rec.target == node {
			rec.SetHooks(before, after)
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (reg *Registry) Len() int { return len(reg.records) }

// Pending returns the number of records not yet applied.
func (reg *Registry) Pending() int {
	n := 0
	for _, rec := range reg.records {
		if !rec.applied {
			n++
		}
	}
	return n
}

// RecordsFor returns the records bound to node in subscription order.
func (reg *Registry) RecordsFor(node *html.Node) []*Record {
	var out []*Record
	for _, rec := range reg.records {
		if rec.target == node {
			out = append(out, rec)
		}
	}
	return out
}

// release detaches a record that has already been taken out of the list.
// Observers still see whether it was applied.
func (reg *Registry) release(rec *Record) {
	rec.removed = true
	if rec.applied {
		reg.target.RemoveEventListener(rec.target, rec.event, rec.listener)
	}
	reg.notify(Unsubscribed, rec)
	rec.applied = false
	rec.listener = nil
}

func (reg *Registry) notify(c Change, rec *Record) {
	if reg.observer != nil {
		reg.observer.ListenerChanged(c, rec)
	}
}
