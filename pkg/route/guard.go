package route

import (
	"context"
	"net/http"
	"net/url"
)

// Guard decides whether navigation from current to next may proceed. When it
// may not, redirect names where to go instead; an empty redirect rejects
// the navigation outright.
type Guard interface {
	DoActivate(ctx context.Context, current, next string) (ok bool, redirect string)
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context, current, next string) (bool, string)

// DoActivate implements Guard.
func (f GuardFunc) DoActivate(ctx context.Context, current, next string) (bool, string) {
	return f(ctx, current, next)
}

// Chain runs guards in order and stops at the first that refuses.
func Chain(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context, current, next string) (bool, string) {
		for _, g := range guards {
			if ok, redirect := g.DoActivate(ctx, current, next); !ok {
				return false, redirect
			}
		}
		return true, ""
	})
}

// LoginGuard sends anonymous visitors to LoginPath and signed-in visitors
// away from it.
type LoginGuard struct {
	LoginPath string
	HomePath  string
	LoggedIn  func(ctx context.Context) bool
}

// DoActivate implements Guard.
func (g LoginGuard) DoActivate(ctx context.Context, _, next string) (bool, string) {
	logged := g.LoggedIn != nil && g.LoggedIn(ctx)
	next = Clean(next)
	switch {
	case !logged && next != Clean(g.LoginPath):
		return false, g.LoginPath
	case logged && next == Clean(g.LoginPath):
		return false, g.HomePath
	}
	return true, ""
}

type requestKey struct{}

// WithRequest returns a context carrying r for guards to inspect.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// Request returns the HTTP request a guard runs for, if any.
func Request(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestKey{}).(*http.Request)
	return r
}

// Middleware applies guard to every request. The current path is taken from
// the Referer header of the same origin, or "" when there is none.
// Refused requests are redirected with 303 See Other, or answered with 403
// when the guard names no redirect.
func Middleware(guard Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRequest(r.Context(), r)
			ok, redirect := guard.DoActivate(ctx, currentPath(r), r.URL.Path)
			if ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if redirect == "" || Clean(redirect) == Clean(r.URL.Path) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			http.Redirect(w, r, redirect, http.StatusSeeOther)
		})
	}
}

func currentPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return ""
	}
	return u.Path
}
