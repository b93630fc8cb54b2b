package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nimble-go/nimble/internal/config"
	"github.com/nimble-go/nimble/internal/dev"
	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/internal/fetch"
	"github.com/nimble-go/nimble/pkg/metrics"
	"github.com/nimble-go/nimble/pkg/route"
	"github.com/nimble-go/nimble/pkg/server"
)

type serveOptions struct {
	config string
	addr   string
	dev    bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve configured pages as live pages",
		Long: `Serve the pages and routes of a nimble project.

Each page is rendered on the server and kept live over a WebSocket:
browser events run the page script, and the reconciled markup is sent
back to the browser.

Examples:
  nimble serve
  nimble serve --config site/nimble.toml --addr :8080
  nimble serve --dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Configuration file (default: nimble.yaml in the current directory)")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Listen address, overrides server.host and server.port")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "Enable hot reload regardless of configuration")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions) error {
	out := cmd.ErrOrStderr()

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.dev {
		cfg.Dev.HotReload = true
	}

	// Flags win over the configuration file.
	level, format := cfg.Log.Level, cfg.Log.Format
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		format = f.Value.String()
	}
	if err := setupLogging(out, level, format); err != nil {
		return err
	}
	logger := slog.Default()

	srv, err := newServer(ctx, cfg, opts.addr, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n\n", headStyle.Render("nimble "+version))
	info(out, "%s %s", labelStyle.Render("Config: "), cfg.Path())
	info(out, "%s http://%s", labelStyle.Render("Address:"), srv.addr)
	info(out, "%s %v", labelStyle.Render("Pages:  "), srv.Pages().Names())
	if cfg.Dev.HotReload {
		info(out, "%s on", labelStyle.Render("Reload: "))
	}
	fmt.Fprintln(out)

	if cfg.Dev.HotReload {
		srv.watch(ctx, out)
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	success(out, "Server stopped")
	return nil
}

// loadConfig loads and validates the configuration at path, or the first
// configuration file of the working directory when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Find(".")
		if path == "" {
			return nil, errors.New("N060").
				WithDetail("No nimble.yaml, nimble.toml or nimble.json in the current directory").
				WithHint("Pass --config or create nimble.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// liveServer is a server.Server plus what the command needs to hot reload it.
type liveServer struct {
	*server.Server
	cfg     *config.Config
	addr    string
	fetcher *fetch.Fetcher
	reload  *dev.ReloadServer
	logger  *slog.Logger
}

func newServer(ctx context.Context, cfg *config.Config, addr string, logger *slog.Logger) (*liveServer, error) {
	f := fetch.New(fetch.WithLogger(logger))

	pages, err := server.LoadCatalog(ctx, cfg, f)
	if err != nil {
		return nil, err
	}
	routes, err := route.NewTable(cfg.Routes)
	if err != nil {
		return nil, errors.New("N060").Wrap(err)
	}

	if addr == "" {
		addr = cfg.Address()
	}
	sc := server.DefaultServerConfig()
	sc.Address = addr
	sc.LivePath = cfg.Server.LivePath
	sc.MetricsPath = cfg.Metrics.Path
	sc.AllowedOrigins = cfg.Server.AllowedOrigins

	opts := []server.Option{server.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(
			metrics.WithRegistry(reg),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}

	if cfg.Auth.LoginPath != "" {
		opts = append(opts, server.WithGuard(loginGuard(cfg.Auth)))
	}

	ls := &liveServer{cfg: cfg, addr: addr, fetcher: f, logger: logger}
	if cfg.Dev.HotReload {
		ls.reload = dev.NewReloadServer(logger)
		opts = append(opts, server.WithReloadServer(ls.reload))
	}

	ls.Server = server.New(sc, pages, routes, opts...)
	return ls, nil
}

// loginGuard treats a visitor holding the session cookie as signed in.
func loginGuard(auth config.AuthConfig) route.Guard {
	return route.LoginGuard{
		LoginPath: auth.LoginPath,
		HomePath:  auth.HomePath,
		LoggedIn: func(ctx context.Context) bool {
			r := route.Request(ctx)
			if r == nil {
				return false
			}
			c, err := r.Cookie(auth.Cookie)
			return err == nil && c.Value != ""
		},
	}
}

// watch reloads the page catalog whenever a template or script changes.
func (s *liveServer) watch(ctx context.Context, out io.Writer) {
	w := dev.NewWatcher(dev.WatcherConfig{
		Paths:  dev.CollectWatchPaths(s.cfg),
		Logger: s.logger,
	})
	w.OnChange(func(changes []dev.Change) {
		s.applyChanges(ctx, out, changes)
	})
	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()
}

func (s *liveServer) applyChanges(ctx context.Context, out io.Writer, changes []dev.Change) {
	for _, c := range changes {
		if c.Type == dev.ChangeConfig {
			warn(out, "%s changed, restart to apply", c.Path)
			return
		}
	}

	pages, err := server.LoadCatalog(ctx, s.cfg, s.fetcher)
	if err != nil {
		s.logger.Error("reload failed", "error", err)
		msg := err.Error()
		var ne *errors.Error
		if stderrors.As(err, &ne) {
			msg = ne.FormatCompact()
		}
		s.reload.Notify(dev.Notice{Kind: dev.NoticeError, Error: msg, Files: changedPaths(changes)})
		return
	}
	s.reload.Notify(dev.Notice{Kind: dev.NoticeClear, Files: changedPaths(changes)})
	s.Reload(pages)
	success(out, "Reloaded %d file(s)", len(changes))
}

func changedPaths(changes []dev.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path
	}
	return out
}
