package scope

import (
	"fmt"

	"github.com/dop251/goja"
)

// script is the JavaScript state of a page.
type script struct {
	vm *goja.Runtime
}

func newScript(src string, state map[string]any) (*script, error) {
	s := &script{vm: goja.New()}
	for k, v := range state {
		if err := s.vm.Set(k, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", k, err)
		}
	}
	if src != "" {
		if _, err := s.vm.RunString(src); err != nil {
			return nil, fmt.Errorf("run script: %w", err)
		}
	}
	return s, nil
}

// eval runs expr and exports its value. undefined and null export as nil.
func (s *script) eval(expr string) (any, error) {
	v, err := s.vm.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expr, err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

func (s *script) set(name string, value any) {
	_ = s.vm.Set(name, value)
}

func (s *script) unset(name string) {
	_ = s.vm.GlobalObject().Delete(name)
}

// fn installs a Go function taking one string argument.
func (s *script) fn(name string, f func(arg string) error) {
	_ = s.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		if err := f(call.Argument(0).String()); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
}
