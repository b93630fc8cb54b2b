package directive

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// Directive is a behavior attached to an element by attribute.
type Directive interface {
	// Resolve binds the directive for one matched attribute.
	Resolve(selector, value string) error
	// Destroy undoes what Resolve did for selector. Listener subscriptions
	// are released by the Binder and need no handling here.
	Destroy(selector string)
	// State returns the shared directive state.
	State() *Base
}

// Updater is implemented by directives that must run on every pass, even
// when their attribute did not change.
type Updater interface {
	Update(selector, value string)
}

// Owner is implemented by directives that manage part of their element
// themselves. Owns reports whether attribute key, or the element's children
// when key is empty, belong to the directive.
type Owner interface {
	Owns(key string) bool
}

// Applied is a selector matched on an element and its attribute value.
type Applied struct {
	Selector string
	Content  any
}

// Base holds the state shared by every directive. Embed it to implement
// Directive.
type Base struct {
	Element *html.Node
	Scope   Scope
	Applied []Applied

	// All holds every directive instance on Element, including this one.
	All []Directive

	binder *Binder
}

// State implements Directive.
func (b *Base) State() *Base { return b }

// PureSelector strips brackets and parentheses: "[(model)]" -> "model".
func PureSelector(selector string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')':
			return -1
		}
		return r
	}, selector)
}

// ValueOfSelector returns the content recorded for selector.
func (b *Base) ValueOfSelector(selector string) (any, bool) {
	pure := PureSelector(selector)
	for _, a := range b.Applied {
		if PureSelector(a.Selector) == pure {
			return a.Content, true
		}
	}
	return nil, false
}

// SetValueOfSelector records content for selector, replacing an earlier value.
func (b *Base) SetValueOfSelector(selector string, content any) {
	pure := PureSelector(selector)
	for i := range b.Applied {
		if PureSelector(b.Applied[i].Selector) == pure {
			b.Applied[i].Content = content
			return
		}
	}
	b.Applied = append(b.Applied, Applied{Selector: selector, Content: content})
}

// DirectiveBySelector returns the directive on the same element that applied
// selector, or nil.
func (b *Base) DirectiveBySelector(selector string) Directive {
	pure := PureSelector(selector)
	for _, d := range b.All {
		for _, a := range d.State().Applied {
			if PureSelector(a.Selector) == pure {
				return d
			}
		}
	}
	return nil
}

// Others returns the other directives on the same element.
func (b *Base) Others() []Directive {
	var out []Directive
	for _, d := range b.All {
		if d.State() != b {
			out = append(out, d)
		}
	}
	return out
}

// Render re-renders the directive's scope.
func (b *Base) Render(ctx context.Context, action func()) error {
	if b.Scope == nil {
		return nil
	}
	return b.Scope.Render(ctx, action)
}

// Compile evaluates expr in the directive's scope.
func (b *Base) Compile(expr string) (any, error) {
	if b.Scope == nil {
		return nil, nil
	}
	return b.Scope.Compile(expr)
}

// Listen subscribes fn to event on the directive's element, tracked under
// selector so a later rebind releases it.
func (b *Base) Listen(selector, event string, fn func(*dom.Event), internal bool) {
	if b.binder == nil {
		return
	}
	b.binder.Listen(b.Element, selector, event, fn, internal)
}

// forget drops selector from Applied.
func (b *Base) forget(selector string) {
	pure := PureSelector(selector)
	kept := b.Applied[:0]
	for _, a := range b.Applied {
		if PureSelector(a.Selector) != pure {
			kept = append(kept, a)
		}
	}
	b.Applied = kept
}
