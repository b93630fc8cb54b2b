package directive

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nimble-go/nimble/pkg/dom"
)

// EventSelectors are the attributes handled by EventsDirective.
var EventSelectors = []string{
	"(click)",
	"(dblclick)",
	"(input)",
	"(change)",
	"(submit)",
	"(keydown)",
	"(keyup)",
	"(focus)",
	"(blur)",
	"(mouseenter)",
	"(mouseleave)",
}

// DragEventSelectors are the attributes handled by the drag events directive.
// These fire at a high rate, so their handlers do not re-render.
var DragEventSelectors = []string{
	"(drag)",
	"(dragend)",
	"(dragenter)",
	"(dragleave)",
	"(dragover)",
	"(dragstart)",
	"(drop)",
	"(scroll)",
}

// EventsDirective evaluates its attribute value when the named event fires,
// with $event bound to the event.
type EventsDirective struct {
	Base
	render bool
}

var _ Directive = (*EventsDirective)(nil)

// NewEventsDirective creates an events directive that re-renders after each handler.
func NewEventsDirective() Directive {
	return &EventsDirective{render: true}
}

// NewDragEventsDirective creates an events directive that only evaluates.
func NewDragEventsDirective() Directive {
	return &EventsDirective{}
}

// Resolve implements Directive.
func (d *EventsDirective) Resolve(selector, value string) error {
	expr := strings.TrimSpace(value)
	if expr == "" {
		return fmt.Errorf("empty expression")
	}
	d.Listen(selector, PureSelector(selector), func(e *dom.Event) {
		d.handle(e, expr)
	}, false)
	return nil
}

// Destroy implements Directive.
func (d *EventsDirective) Destroy(string) {}

func (d *EventsDirective) handle(e *dom.Event, expr string) {
	run := func() {
		withVar(d.Scope, EventVar, e.Object(), func() {
			if _, err := d.Compile(expr); err != nil {
				logger().Warn("event handler failed", "event", e.Type, "expr", expr, "error", err)
			}
		})
	}
	if !d.render {
		run()
		return
	}
	if err := d.Render(e.Context(), run); err != nil {
		logger().Warn("render after event failed", "event", e.Type, "error", err)
	}
}

func logger() *slog.Logger {
	return slog.Default().With("component", "directive")
}
