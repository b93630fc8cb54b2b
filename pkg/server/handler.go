package server

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/nimble-go/nimble/internal/dev"
	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/pkg/route"
)

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<div id="nimble-root" data-live="{{.Live}}">{{.Body}}</div>
<script>{{.Client}}</script>
{{.Reload}}
</body>
</html>
`))

type shell struct {
	Title  string
	Live   string
	Body   template.HTML
	Client template.JS
	Reload template.HTML
}

// handlePage renders the routed page once and returns it inside the shell.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	match, ok := s.routes.Match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	spec, ok := s.Pages().Get(match.Page)
	if !ok {
		s.logger.Error("route refers to unknown page", "path", match.Full, "page", match.Page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page, err := spec.Build(r.Context(), match.Params, s.pageOptions()...)
	if err != nil {
		s.logger.Error("page build failed", "page", spec.Name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	body := page.HTML()
	page.Close()

	data := shell{
		Title:  spec.Name,
		Live:   s.config.LivePath + "?path=" + url.QueryEscape(r.URL.Path),
		Body:   template.HTML(body),
		Client: template.JS(clientScript()),
	}
	if s.reload != nil {
		data.Reload = template.HTML(dev.ClientScript(s.config.ReloadPath))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTemplate.Execute(w, data); err != nil {
		s.logger.Warn("write page failed", "error", err)
	}
}

// handleLive upgrades to a live session for the page routed at ?path=.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	match, ok := s.routes.Match(path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.guard != nil {
		if ok, _ := s.guard.DoActivate(route.WithRequest(r.Context(), r), "", path); !ok {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
	}
	spec, ok := s.Pages().Get(match.Page)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.sessions.Full() {
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.metrics != nil {
			s.metrics.WSError("upgrade")
		}
		s.logger.Warn("upgrade failed", "error", errors.New("N041").Wrap(err))
		return
	}

	page, err := spec.Build(r.Context(), match.Params, s.pageOptions()...)
	if err != nil {
		s.logger.Error("page build failed", "page", spec.Name, "error", err)
		conn.Close()
		return
	}

	sess := newSession(conn, page, match, r.RemoteAddr, s.config.SessionConfig, s.metrics, s.logger)
	if err := s.sessions.Add(sess); err != nil {
		sess.Close()
		return
	}
	defer s.sessions.Remove(sess.ID())
	sess.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
