// Package server serves nimble pages over HTTP and keeps them live over
// WebSocket.
//
// A GET for a routed path renders the page once and returns an HTML shell.
// The shell's script then opens a live session on ServerConfig.LivePath. The
// session owns its own Page: client events are dispatched into the page tree
// and every pass that changes the tree is answered with the new markup.
//
// # Live Protocol
//
// Messages are JSON text frames. The client sends events:
//
//	{"type": "event", "scope": "home", "path": "0.1", "event": "click", "detail": {"value": ""}}
//
// The server answers with:
//
//	{"type": "render", "html": "..."}   // new page markup
//	{"type": "error", "code": "N021", "error": "..."}
//	{"type": "reload"}                  // page definition changed
//
// # Usage
//
//	pages, _ := server.LoadCatalog(ctx, cfg, fetch.New())
//	routes, _ := route.NewTable(cfg.Routes)
//	srv := server.New(server.DefaultServerConfig(), pages, routes)
//	log.Fatal(srv.Run(ctx))
package server
