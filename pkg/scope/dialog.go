package scope

import (
	"context"
	"fmt"

	"github.com/nimble-go/nimble/pkg/directive"
)

// Dialog is a scope rendered on top of its page while open. It shares the
// page state, so rendering a dialog renders the page too.
type Dialog struct {
	*view
	page *Page
	open bool
}

var _ directive.VarScope = (*Dialog)(nil)

// Dialog registers a dialog on the page. Registering a name twice replaces
// the earlier dialog, closing it first.
func (p *Page) Dialog(name, template string) (*Dialog, error) {
	if name == "" || name == p.name {
		return nil, fmt.Errorf("page %s: invalid dialog name %q", p.name, name)
	}
	if old, ok := p.dialogs[name]; ok {
		old.close()
	}
	d := &Dialog{
		view: newView(name, "dialog", template, &p.dialogCfg),
		page: p,
	}
	p.dialogs[name] = d
	return d, nil
}

// Open shows the dialog and renders it.
func (d *Dialog) Open(ctx context.Context) error {
	return d.page.Render(ctx, func() { d.open = true })
}

// Close hides the dialog and releases its listeners.
func (d *Dialog) Close() { d.close() }

// IsOpen reports whether the dialog is shown.
func (d *Dialog) IsOpen() bool { return d.open }

// Render runs action and re-renders the page and its open dialogs.
func (d *Dialog) Render(ctx context.Context, action func()) error {
	return d.page.Render(ctx, action)
}

// Compile evaluates expr against the page state.
func (d *Dialog) Compile(expr string) (any, error) { return d.page.Compile(expr) }

// SetVar sets a global variable.
func (d *Dialog) SetVar(name string, value any) { d.page.SetVar(name, value) }

// DeleteVar removes a global variable.
func (d *Dialog) DeleteVar(name string) { d.page.DeleteVar(name) }

func (d *Dialog) close() {
	if !d.open {
		return
	}
	d.open = false
	d.view.clear()
}
