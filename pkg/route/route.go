package route

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route maps a path to a page.
type Route struct {
	Path     string  `json:"path" yaml:"path" toml:"path"`
	Priority bool    `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	Page     string  `json:"page" yaml:"page" toml:"page"`
	Children []Route `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// Match is a resolved route.
type Match struct {
	Route
	// Full is the route's complete path pattern.
	Full   string
	Params map[string]string
}

type entry struct {
	full   string
	params []string
	route  Route
}

// Table is a flattened, validated set of routes. Lookups run on a chi
// routing tree, so static segments win over parameters.
type Table struct {
	mux      *chi.Mux
	entries  map[string]entry
	shapes   map[string]string
	priority *entry
}

// NewTable flattens routes and validates them. Duplicate paths, paths that
// differ only in parameter names and more than one priority route are errors.
func NewTable(routes []Route) (t *Table, err error) {
	t = &Table{mux: chi.NewRouter(), entries: make(map[string]entry), shapes: make(map[string]string)}
	defer func() {
		// chi panics on patterns it cannot route.
		if p := recover(); p != nil {
			t, err = nil, fmt.Errorf("route: %v", p)
		}
	}()
	if err := t.add("/", routes); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) add(prefix string, routes []Route) error {
	for _, r := range routes {
		full := Clean(path.Join(prefix, r.Path))
		if r.Page != "" {
			pattern, shape, params := chiPattern(full)
			if prev, ok := t.shapes[shape]; ok {
				if prev == full {
					return fmt.Errorf("duplicate route %q", full)
				}
				return fmt.Errorf("routes %q and %q overlap", prev, full)
			}
			e := entry{full: full, params: params, route: r}
			t.shapes[shape] = full
			t.entries[pattern] = e
			t.mux.Method(http.MethodGet, pattern, http.NotFoundHandler())
			if r.Priority {
				if t.priority != nil {
					return fmt.Errorf("routes %q and %q are both priority routes", t.priority.full, full)
				}
				t.priority = &e
			}
		}
		if err := t.add(full, r.Children); err != nil {
			return err
		}
	}
	return nil
}

// Match finds the route for p. When nothing matches the priority route is
// returned, if any.
func (t *Table) Match(p string) (Match, bool) {
	rctx := chi.NewRouteContext()
	if pattern := t.mux.Find(rctx, http.MethodGet, Clean(p)); pattern != "" {
		if e, ok := t.entries[pattern]; ok {
			m := Match{Route: e.route, Full: e.full}
			for _, name := range e.params {
				if m.Params == nil {
					m.Params = make(map[string]string, len(e.params))
				}
				m.Params[name] = rctx.URLParam(name)
			}
			return m, true
		}
	}
	if t.priority != nil {
		return Match{Route: t.priority.route, Full: t.priority.full}, true
	}
	return Match{}, false
}

// Clean normalizes a path to a rooted form without a trailing slash.
func Clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// chiPattern rewrites :name segments as {name}. shape has the names
// removed, so two routes with the same shape would match the same paths.
func chiPattern(full string) (pattern, shape string, params []string) {
	segs := strings.Split(full, "/")
	anon := make([]string, len(segs))
	for i, s := range segs {
		anon[i] = s
		if name, ok := strings.CutPrefix(s, ":"); ok && name != "" {
			segs[i] = "{" + name + "}"
			anon[i] = "{}"
			params = append(params, name)
		}
	}
	return strings.Join(segs, "/"), strings.Join(anon, "/"), params
}
