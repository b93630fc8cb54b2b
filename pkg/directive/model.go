package directive

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// ModelSelector is the two-way binding attribute.
const ModelSelector = "[(model)]"

// ValueVar is the variable holding the new value during a model assignment.
const ValueVar = "$value"

var assignable = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*|\[\d+\])*$`)

// ModelDirective keeps a form control and a scope variable in sync. The
// control is written from scope on every pass; user input is written back by
// an internal listener, so it lands in scope before user listeners run.
type ModelDirective struct {
	Base
}

var (
	_ Directive = (*ModelDirective)(nil)
	_ Updater   = (*ModelDirective)(nil)
	_ Owner     = (*ModelDirective)(nil)
)

// NewModelDirective creates a model directive.
func NewModelDirective() Directive {
	return &ModelDirective{}
}

// Resolve implements Directive.
func (d *ModelDirective) Resolve(selector, value string) error {
	path := strings.TrimSpace(value)
	if !assignable.MatchString(path) {
		return fmt.Errorf("model target %q is not assignable", value)
	}
	d.Update(selector, path)
	for _, event := range modelEvents(d.Element) {
		d.Listen(selector, event, func(e *dom.Event) {
			d.assign(e, path)
		}, true)
	}
	return nil
}

// Update writes the scope value into the control.
func (d *ModelDirective) Update(_, value string) {
	v, err := d.Compile(strings.TrimSpace(value))
	if err != nil {
		logger().Warn("model read failed", "expr", value, "error", err)
		return
	}
	n := d.Element
	switch {
	case isCheckable(n):
		if truthy(v) {
			dom.SetAttr(n, "checked", "")
		} else {
			dom.RemoveAttr(n, "checked")
		}
	case n.Data == "textarea":
		dom.SetTextContent(n, format(v))
	default:
		dom.SetAttr(n, "value", format(v))
	}
}

// Destroy implements Directive.
func (d *ModelDirective) Destroy(string) {}

// Owns implements Owner: the control's current value is the binding's.
func (d *ModelDirective) Owns(key string) bool {
	switch n := d.Element; {
	case isCheckable(n):
		return key == "checked"
	case n.Data == "textarea":
		return key == ""
	default:
		return key == "value"
	}
}

func (d *ModelDirective) assign(e *dom.Event, path string) {
	var v any = e.Value()
	if isCheckable(d.Element) {
		checked, _ := e.Detail["checked"].(bool)
		v = checked
	}
	write := func() {
		withVar(d.Scope, ValueVar, v, func() {
			if _, err := d.Compile(path + " = " + ValueVar); err != nil {
				logger().Warn("model write failed", "expr", path, "error", err)
			}
		})
	}
	if err := d.Render(e.Context(), write); err != nil {
		logger().Warn("render after model write failed", "expr", path, "error", err)
	}
}

func modelEvents(n *html.Node) []string {
	if n.Data == "select" || isCheckable(n) {
		return []string{"change"}
	}
	return []string{"input"}
}

func isCheckable(n *html.Node) bool {
	if n.Data != "input" {
		return false
	}
	t, _ := dom.GetAttr(n, "type")
	return t == "checkbox" || t == "radio"
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

func format(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
