package server

import (
	"context"
	"sort"
	"sync"

	"github.com/nimble-go/nimble/internal/config"
	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/internal/fetch"
	"github.com/nimble-go/nimble/pkg/scope"
)

// PageSpec is the source of a page: its template, setup script and dialogs.
type PageSpec struct {
	Name     string
	Template string
	Script   string
	Dialogs  map[string]string
}

// Build creates a page from spec, with params exposed to its script as
// the global "params", and mounts it.
func (spec PageSpec) Build(ctx context.Context, params map[string]string, opts ...scope.Option) (*scope.Page, error) {
	state := make(map[string]any, len(params))
	for k, v := range params {
		state[k] = v
	}
	opts = append([]scope.Option{
		scope.WithScript(spec.Script),
		scope.WithState(map[string]any{"params": state}),
	}, opts...)

	page, err := scope.NewPage(spec.Name, spec.Template, opts...)
	if err != nil {
		return nil, errors.New("N003").Wrap(err)
	}

	names := make([]string, 0, len(spec.Dialogs))
	for name := range spec.Dialogs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := page.Dialog(name, spec.Dialogs[name]); err != nil {
			page.Close()
			return nil, errors.New("N020").Wrap(err)
		}
	}

	if err := page.Mount(ctx); err != nil {
		page.Close()
		return nil, errors.New("N020").Wrap(err)
	}
	return page, nil
}

// Catalog holds the page specs a server can build. It is safe for
// concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	pages map[string]PageSpec
}

// NewCatalog creates a catalog from specs.
func NewCatalog(specs ...PageSpec) *Catalog {
	c := &Catalog{pages: make(map[string]PageSpec, len(specs))}
	for _, s := range specs {
		c.pages[s.Name] = s
	}
	return c
}

// Set adds or replaces a spec.
func (c *Catalog) Set(spec PageSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[spec.Name] = spec
}

// Get returns the page spec named name.
func (c *Catalog) Get(name string) (PageSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.pages[name]
	return spec, ok
}

// Names returns every page name, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.pages))
	for name := range c.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadCatalog reads every configured page through f. Template and script
// locations are resolved against the config directory.
func LoadCatalog(ctx context.Context, cfg *config.Config, f *fetch.Fetcher) (*Catalog, error) {
	c := NewCatalog()
	for name, pc := range cfg.Pages {
		spec := PageSpec{Name: name, Dialogs: make(map[string]string, len(pc.Dialogs))}

		tmpl, err := f.ReadAll(ctx, cfg.Resolve(pc.Template))
		if err != nil {
			return nil, errors.New("N001").
				WithDetail("Page " + name + ": " + pc.Template).
				Wrap(err)
		}
		spec.Template = string(tmpl)

		if pc.Script != "" {
			src, err := f.ReadAll(ctx, cfg.Resolve(pc.Script))
			if err != nil {
				return nil, errors.New("N003").
					WithDetail("Page " + name + ": " + pc.Script).
					Wrap(err)
			}
			spec.Script = string(src)
		}

		for dialog, loc := range pc.Dialogs {
			data, err := f.ReadAll(ctx, cfg.Resolve(loc))
			if err != nil {
				return nil, errors.New("N001").
					WithDetail("Dialog " + name + "/" + dialog + ": " + loc).
					Wrap(err)
			}
			spec.Dialogs[dialog] = string(data)
		}
		c.Set(spec)
	}
	return c, nil
}
