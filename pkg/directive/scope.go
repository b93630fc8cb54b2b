package directive

import "context"

// Scope is what a directive renders and evaluates expressions against.
type Scope interface {
	// Render runs action, if any, and re-renders the scope's tree.
	Render(ctx context.Context, action func()) error
	// Compile evaluates expr in the scope and returns its value.
	Compile(expr string) (any, error)
}

// VarScope is a Scope that accepts temporary variables.
type VarScope interface {
	Scope
	SetVar(name string, value any)
	DeleteVar(name string)
}

// EventVar is the variable holding the current event while a handler runs.
const EventVar = "$event"

// withVar runs fn with name bound to value when scope supports variables.
func withVar(scope Scope, name string, value any, fn func()) {
	vs, ok := scope.(VarScope)
	if !ok {
		fn()
		return
	}
	vs.SetVar(name, value)
	defer vs.DeleteVar(name)
	fn()
}
