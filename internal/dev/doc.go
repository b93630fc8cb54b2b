// Package dev provides hot reload for nimble pages.
//
// A Watcher reports changes to page templates, scripts and the config file.
// A ReloadServer tells connected browsers to reload or to show an error
// overlay. The browser connects via WebSocket; messages are JSON-encoded:
//
//	{"type": "reload", "file": "pages/home.html"}
//	{"type": "error", "error": "..."}
//	{"type": "clear"}
package dev
