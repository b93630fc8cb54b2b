// Package middleware provides HTTP middleware for nimble servers.
//
// This package includes:
//   - OpenTelemetry tracing of page requests
//   - Structured request logging with log/slog
//
// # OpenTelemetry Middleware
//
// Tracing starts a server span for every request it wraps. Spans carry the
// method, path, request ID and response status:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Tracing(
//	    middleware.WithTracerName("my-site"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before serving.
//
// # Request Logging
//
// RequestLogger writes one record per request:
//
//	r.Use(middleware.RequestLogger(slog.Default()))
//
// Responses with a 5xx status are logged at error level.
package middleware
