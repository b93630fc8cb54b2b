package dom

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"
)

// Document is the event target of a live tree. It owns the listener table for
// every node under (and detached from) its root. It is not safe for concurrent
// use; callers serialize access the same way they serialize tree mutation.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]*Listener
	logger    *slog.Logger
}

// NewDocument creates a Document for the given live root.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]*Listener),
		logger:    slog.Default().With("component", "dom"),
	}
}

// Root returns the live root node.
func (d *Document) Root() *html.Node { return d.root }

// SetRoot replaces the live root, e.g. after the reconciler swapped it.
func (d *Document) SetRoot(root *html.Node) { d.root = root }

// SetLogger sets the document logger.
func (d *Document) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// AddEventListener attaches l to n for events of type typ. Adding the same
// listener twice for the same node and type is a no-op.
func (d *Document) AddEventListener(n *html.Node, typ string, l *Listener) {
	if n == nil || l == nil || l.Handle == nil {
		return
	}
	byType := d.listeners[n]
	if byType == nil {
		byType = make(map[string][]*Listener)
		d.listeners[n] = byType
	}
	for _, existing := range byType[typ] {
		if existing == l {
			return
		}
	}
	byType[typ] = append(byType[typ], l)
}

// RemoveEventListener detaches l from n. It reports whether l was attached;
// removing an unknown listener, or one on a node that left the tree, is a no-op.
func (d *Document) RemoveEventListener(n *html.Node, typ string, l *Listener) bool {
	byType := d.listeners[n]
	if byType == nil {
		return false
	}
	list := byType[typ]
	for i, existing := range list {
		if existing != l {
			continue
		}
		byType[typ] = append(list[:i:i], list[i+1:]...)
		if len(byType[typ]) == 0 {
			delete(byType, typ)
		}
		if len(byType) == 0 {
			delete(d.listeners, n)
		}
		return true
	}
	return false
}

// ListenerCount returns the number of listeners attached to n for typ.
// An empty typ counts every type.
func (d *Document) ListenerCount(n *html.Node, typ string) int {
	byType := d.listeners[n]
	if typ != "" {
		return len(byType[typ])
	}
	total := 0
	for _, list := range byType {
		total += len(list)
	}
	return total
}

// TrackedNodes returns the number of nodes that currently hold listeners.
func (d *Document) TrackedNodes() int { return len(d.listeners) }

// Dispatch delivers ev to target through the capture, target and bubble
// phases. It returns false if a listener called PreventDefault.
func (d *Document) Dispatch(ctx context.Context, target *html.Node, ev *Event) bool {
	if target == nil || ev == nil {
		return true
	}
	ev.ctx = ctx
	ev.target = target

	var path []*html.Node
	for p := target.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}

	ev.phase = PhaseCapturing
	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		d.invoke(path[i], ev, func(l *Listener) bool { return l.Capture })
	}

	if !ev.stopped {
		ev.phase = PhaseAtTarget
		d.invoke(target, ev, func(*Listener) bool { return true })
	}

	if ev.bubbles {
		ev.phase = PhaseBubbling
		for i := 0; i < len(path) && !ev.stopped; i++ {
			d.invoke(path[i], ev, func(l *Listener) bool { return !l.Capture })
		}
	}

	ev.phase = PhaseNone
	ev.currentTarget = nil
	return !ev.defaultPrevented
}

func (d *Document) invoke(n *html.Node, ev *Event, accept func(*Listener) bool) {
	list := d.listeners[n][ev.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*Listener, len(list))
	copy(snapshot, list)

	ev.currentTarget = n
	for _, l := range snapshot {
		if ev.stoppedNow {
			return
		}
		if !accept(l) || !d.attached(n, ev.Type, l) {
			continue
		}
		if l.Once {
			d.RemoveEventListener(n, ev.Type, l)
		}
		ev.passive = l.Passive
		d.call(l, ev)
		ev.passive = false
	}
}

// attached reports whether l is still attached; an earlier listener in the
// same dispatch may have removed it.
func (d *Document) attached(n *html.Node, typ string, l *Listener) bool {
	for _, existing := range d.listeners[n][typ] {
		if existing == l {
			return true
		}
	}
	return false
}

func (d *Document) call(l *Listener, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panic", "event", ev.Type, "panic", r)
		}
	}()
	l.Handle(ev)
}
