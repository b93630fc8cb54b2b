package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/pkg/route"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultLivePath is the websocket endpoint of live sessions.
	DefaultLivePath = "/_nimble/live"
)

// ConfigFileNames are looked up, in order, by Find.
var ConfigFileNames = []string{"nimble.yaml", "nimble.yml", "nimble.toml", "nimble.json"}

// Config is the nimble project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" yaml:"server" toml:"server"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log" toml:"log"`

	// Metrics contains prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`

	// Dev contains development settings.
	Dev DevConfig `json:"dev" yaml:"dev" toml:"dev"`

	// Auth configures the login guard. Routes are open when LoginPath is empty.
	Auth AuthConfig `json:"auth" yaml:"auth" toml:"auth"`

	// Pages maps page names to their template and script.
	Pages map[string]PageConfig `json:"pages,omitempty" yaml:"pages,omitempty" toml:"pages,omitempty"`

	// Routes maps URL paths to pages.
	Routes []route.Route `json:"routes,omitempty" yaml:"routes,omitempty" toml:"routes,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"`

	// LivePath is the websocket endpoint.
	LivePath string `json:"livePath,omitempty" yaml:"livePath,omitempty" toml:"livePath,omitempty"`

	// AllowedOrigins lists CORS origins for the live endpoint.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty" toml:"allowedOrigins,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// MetricsConfig contains prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
}

// DevConfig contains development settings.
type DevConfig struct {
	// HotReload re-reads page templates when they change on disk.
	HotReload bool `json:"hotReload,omitempty" yaml:"hotReload,omitempty" toml:"hotReload,omitempty"`
}

// AuthConfig configures the login guard.
type AuthConfig struct {
	LoginPath string `json:"loginPath,omitempty" yaml:"loginPath,omitempty" toml:"loginPath,omitempty"`
	HomePath  string `json:"homePath,omitempty" yaml:"homePath,omitempty" toml:"homePath,omitempty"`

	// Cookie is the session cookie whose presence means logged in.
	Cookie string `json:"cookie,omitempty" yaml:"cookie,omitempty" toml:"cookie,omitempty"`
}

// PageConfig describes one page.
type PageConfig struct {
	// Template is the path of the page template.
	Template string `json:"template" yaml:"template" toml:"template"`

	// Script is the path of an optional script run once per session.
	Script string `json:"script,omitempty" yaml:"script,omitempty" toml:"script,omitempty"`

	// Dialogs maps dialog names to template paths.
	Dialogs map[string]string `json:"dialogs,omitempty" yaml:"dialogs,omitempty" toml:"dialogs,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			LivePath: DefaultLivePath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: "nimble",
		},
		Auth: AuthConfig{
			Cookie: "nimble_session",
		},
		Pages: map[string]PageConfig{},
	}
}

// Load reads configuration from path. The format is chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("N060").
				WithDetail("No configuration file at " + path).
				WithHint("Create nimble.yaml or pass --config")
		}
		return nil, errors.New("N062").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	default:
		return errors.New("N061").WithDetail("Unknown extension " + strconv.Quote(ext))
	}
	if err != nil {
		return errors.New("N062").
			WithDetail("Failed to parse " + filepath.Base(path)).
			Wrap(err)
	}
	return nil
}

// Find returns the first config file in dir, or "" if none exists.
func Find(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Save writes the configuration to path, encoded by extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		data, err = toml.Marshal(c)
	default:
		return errors.New("N061").WithDetail("Unknown extension " + strconv.Quote(ext))
	}
	if err != nil {
		return errors.New("N062").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("N081").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LivePath == "" {
		c.Server.LivePath = DefaultLivePath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Pages == nil {
		c.Pages = map[string]PageConfig{}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("N060").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := c.SlogLevel(); err != nil {
		return errors.New("N060").WithDetail(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("N060").
			WithDetail("log.format must be text or json, got " + strconv.Quote(c.Log.Format))
	}
	if _, err := route.NewTable(c.Routes); err != nil {
		return errors.New("N060").Wrap(err)
	}
	if err := checkRoutes(c.Routes, c.Pages); err != nil {
		return err
	}
	for name, p := range c.Pages {
		if p.Template == "" {
			return errors.New("N060").
				WithDetail("Page " + strconv.Quote(name) + " has no template")
		}
	}
	if (c.Auth.LoginPath == "") != (c.Auth.HomePath == "") {
		return errors.New("N060").
			WithDetail("auth.loginPath and auth.homePath must be set together")
	}
	return nil
}

func checkRoutes(routes []route.Route, pages map[string]PageConfig) error {
	for _, r := range routes {
		if r.Page != "" {
			if _, ok := pages[r.Page]; !ok {
				return errors.New("N060").
					WithDetail(fmt.Sprintf("Route %q refers to unknown page %q", r.Path, r.Page))
			}
		}
		if err := checkRoutes(r.Children, pages); err != nil {
			return err
		}
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// Address returns the listen address of the server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Resolve returns p relative to the config directory, unless p is absolute
// or a URL.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(c.Dir(), p)
}
