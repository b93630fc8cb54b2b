package dom

import (
	"context"

	"golang.org/x/net/html"
)

// Phase is the dispatch phase of an event.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// Event is a UI event travelling through the live tree.
type Event struct {
	Type   string
	Detail map[string]any

	ctx              context.Context
	target           *html.Node
	currentTarget    *html.Node
	phase            Phase
	bubbles          bool
	stopped          bool
	stoppedNow       bool
	defaultPrevented bool
	passive          bool
}

// NewEvent creates an event. detail carries event-specific data such as the
// current value of an input.
func NewEvent(typ string, bubbles bool, detail map[string]any) *Event {
	if detail == nil {
		detail = map[string]any{}
	}
	return &Event{Type: typ, Detail: detail, bubbles: bubbles}
}

// Context returns the context of the dispatch that delivers the event.
func (e *Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *Event) Target() *html.Node        { return e.target }
func (e *Event) CurrentTarget() *html.Node { return e.currentTarget }
func (e *Event) Phase() Phase              { return e.phase }
func (e *Event) Bubbles() bool             { return e.bubbles }
func (e *Event) DefaultPrevented() bool    { return e.defaultPrevented }
func (e *Event) Stopped() bool             { return e.stopped }

// PreventDefault marks the event as handled. It has no effect inside a
// passive listener.
func (e *Event) PreventDefault() {
	if e.passive {
		return
	}
	e.defaultPrevented = true
}

// StopPropagation prevents the event from reaching further nodes.
// Remaining listeners on the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation also skips the remaining listeners on the current node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedNow = true
}

// Value returns Detail["value"] as a string, or "".
func (e *Event) Value() string {
	if v, ok := e.Detail["value"].(string); ok {
		return v
	}
	return ""
}

// Object returns a plain map view of the event, suitable for script runtimes.
func (e *Event) Object() map[string]any {
	obj := map[string]any{
		"type":             e.Type,
		"value":            e.Value(),
		"defaultPrevented": e.defaultPrevented,
	}
	for k, v := range e.Detail {
		if _, taken := obj[k]; !taken {
			obj[k] = v
		}
	}
	if e.target != nil {
		obj["tag"] = e.target.Data
	}
	return obj
}

// Listener is an event listener. Listeners are compared by pointer, so the
// same *Listener must be passed to RemoveEventListener.
type Listener struct {
	Handle  func(*Event)
	Capture bool
	Once    bool
	Passive bool
}
