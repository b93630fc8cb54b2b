// Package metrics exposes Prometheus instruments for live pages.
//
// A Metrics value observes the reconciler and the listener registry of every
// page it is handed to, and records render, session and websocket activity:
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	page, _ := scope.NewPage("home", tmpl,
//	    scope.WithMutationObserver(m),
//	    scope.WithListenerObserver(m),
//	    scope.WithRenderHook(m.ObserveRender),
//	)
//
// Collected metrics:
//   - nimble_mutations_total{op}
//   - nimble_listeners_total{change}
//   - nimble_listeners_active
//   - nimble_render_duration_seconds{scope}
//   - nimble_render_errors_total{scope}
//   - nimble_sessions_active
//   - nimble_events_total{event}
//   - nimble_ws_errors_total{kind}
package metrics
