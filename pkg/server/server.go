package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimble-go/nimble/internal/dev"
	"github.com/nimble-go/nimble/pkg/metrics"
	nimblemw "github.com/nimble-go/nimble/pkg/middleware"
	"github.com/nimble-go/nimble/pkg/route"
	"github.com/nimble-go/nimble/pkg/scope"
)

// Server is the HTTP/WebSocket server for nimble pages.
type Server struct {
	config   *ServerConfig
	pages    atomic.Pointer[Catalog]
	routes   *route.Table
	guard    route.Guard
	sessions *SessionManager

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	reload   *dev.ReloadServer
	pageOpts []scope.Option

	upgrader   websocket.Upgrader
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGuard guards every page and live session.
func WithGuard(g route.Guard) Option {
	return func(s *Server) {
		s.guard = g
	}
}

// WithMetrics records page and session metrics into m and serves g on
// MetricsPath.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithReloadServer serves hot reload notifications on ReloadPath and adds
// the reload client to every page.
func WithReloadServer(rs *dev.ReloadServer) Option {
	return func(s *Server) {
		s.reload = rs
	}
}

// WithPageOptions adds options to every page the server builds.
func WithPageOptions(opts ...scope.Option) Option {
	return func(s *Server) {
		s.pageOpts = append(s.pageOpts, opts...)
	}
}

// New creates a Server.
func New(config *ServerConfig, pages *Catalog, routes *route.Table, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config: config,
		routes: routes,
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if pages == nil {
		pages = NewCatalog()
	}
	s.pages.Store(pages)
	s.sessions = NewSessionManager(config.MaxSessions, s.metrics, s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}
	s.handler = s.router()
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.reload != nil {
		r.Handle(s.config.ReloadPath, s.reload)
	}
	r.Get(s.config.LivePath, s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(nimblemw.RequestLogger(s.logger))
		r.Use(nimblemw.Tracing())
		if s.guard != nil {
			r.Use(route.Middleware(s.guard))
		}
		r.Get("/*", s.handlePage)
	})
	return r
}

func (s *Server) pageOptions() []scope.Option {
	opts := []scope.Option{scope.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts,
			scope.WithMutationObserver(s.metrics),
			scope.WithListenerObserver(s.metrics),
			scope.WithRenderHook(s.metrics.ObserveRender),
		)
	}
	return append(opts, s.pageOpts...)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Pages returns the current page catalog.
func (s *Server) Pages() *Catalog { return s.pages.Load() }

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Reload swaps in a new page catalog and tells every live session to reload.
func (s *Server) Reload(pages *Catalog) {
	s.pages.Store(pages)
	s.sessions.Broadcast(ServerMessage{Type: MessageReload})
	s.logger.Info("pages reloaded", "pages", len(pages.Names()), "sessions", s.sessions.Count())
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down", "sessions", s.sessions.Count())
	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	errs = append(errs, s.sessions.Shutdown(ctx))
	if s.reload != nil {
		s.reload.Close()
	}
	return stderrors.Join(errs...)
}
