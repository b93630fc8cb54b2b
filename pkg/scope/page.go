package scope

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nimble-go/nimble/pkg/directive"
	"github.com/nimble-go/nimble/pkg/listener"
)

// Page is the top-level scope of a live tree.
type Page struct {
	*view
	script    *script
	dialogs   map[string]*Dialog
	dialogCfg config

	rendering bool
	pending   bool
	renders   int
}

var _ directive.VarScope = (*Page)(nil)

// NewPage creates a page. The page has no content until Mount.
func NewPage(name, template string, opts ...Option) (*Page, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := newScript(cfg.script, cfg.state)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", name, err)
	}
	p := &Page{
		view:    newView(name, "div", template, &cfg),
		script:  s,
		dialogs: make(map[string]*Dialog),
	}
	p.dialogCfg = cfg
	s.fn("openDialog", func(name string) error { return p.setDialog(name, true) })
	s.fn("closeDialog", func(name string) error { return p.setDialog(name, false) })
	return p, nil
}

// Name returns the page name.
func (p *Page) Name() string { return p.name }

// Mount renders the page for the first time.
func (p *Page) Mount(ctx context.Context) error {
	return p.Render(ctx, nil)
}

// Render runs action and re-renders the page and its open dialogs. A render
// requested while one is running is folded into a single follow-up pass.
func (p *Page) Render(ctx context.Context, action func()) error {
	if action != nil {
		action()
	}
	if p.rendering {
		p.pending = true
		return nil
	}
	p.rendering = true
	defer func() { p.rendering = false }()

	var err error
	for {
		p.pending = false
		err = p.renderOnce(ctx)
		if !p.pending {
			return err
		}
	}
}

func (p *Page) renderOnce(ctx context.Context) error {
	p.renders++
	errs := []error{p.view.render(ctx, p, p.script.eval)}
	for _, name := range p.dialogNames() {
		d := p.dialogs[name]
		if d.open {
			errs = append(errs, d.view.render(ctx, d, p.script.eval))
		}
	}
	return errors.Join(errs...)
}

// Renders returns the number of render passes so far.
func (p *Page) Renders() int { return p.renders }

// Compile evaluates expr against the page state.
func (p *Page) Compile(expr string) (any, error) { return p.script.eval(expr) }

// SetVar sets a global variable.
func (p *Page) SetVar(name string, value any) { p.script.set(name, value) }

// DeleteVar removes a global variable.
func (p *Page) DeleteVar(name string) { p.script.unset(name) }

// Dispatch delivers an event to the element at path in the page tree, or in
// the named dialog when scope is not the page name or empty. It returns
// false if a listener prevented the default action.
func (p *Page) Dispatch(ctx context.Context, scope, path, typ string, detail map[string]any) (bool, error) {
	if scope == "" || scope == p.name {
		return p.view.dispatch(ctx, path, typ, detail)
	}
	d, ok := p.dialogs[scope]
	if !ok || !d.open {
		return false, fmt.Errorf("page %s: no open dialog %q", p.name, scope)
	}
	return d.view.dispatch(ctx, path, typ, detail)
}

// HTML renders the page tree followed by every open dialog.
func (p *Page) HTML() string {
	var b strings.Builder
	b.WriteString(p.view.html())
	for _, name := range p.dialogNames() {
		if d := p.dialogs[name]; d.open {
			b.WriteString(d.view.html())
		}
	}
	return b.String()
}

// Registry returns the page's listener registry.
func (p *Page) Registry() *listener.Registry { return p.registry }

// Close releases every listener of the page and its dialogs.
func (p *Page) Close() {
	for _, d := range p.dialogs {
		d.view.clear()
		d.open = false
	}
	p.view.clear()
}

func (p *Page) dialogNames() []string {
	names := make([]string, 0, len(p.dialogs))
	for name := range p.dialogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Page) setDialog(name string, open bool) error {
	d, ok := p.dialogs[name]
	if !ok {
		return fmt.Errorf("unknown dialog %q", name)
	}
	if open {
		d.open = true
		if p.rendering {
			p.pending = true
		}
		return nil
	}
	d.close()
	return nil
}
