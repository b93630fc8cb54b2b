package server

import (
	"net/http"
	"net/url"
	"time"
)

// SessionConfig holds per-session settings.
type SessionConfig struct {
	// ReadTimeout is how long a session may stay silent, pongs included.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is how often the server pings the client. It must be
	// shorter than ReadTimeout.
	// Default: 25 seconds.
	PingInterval time.Duration

	// MaxMessageSize is the largest accepted client message in bytes.
	// Default: 64KB.
	MaxMessageSize int64
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   25 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// ServerConfig holds configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Address is the address to listen on.
	// Default: ":3000".
	Address string

	// LivePath is the WebSocket endpoint of live sessions.
	// Default: "/_nimble/live".
	LivePath string

	// MetricsPath serves prometheus metrics when a gatherer is set.
	// Default: "/metrics".
	MetricsPath string

	// ReloadPath serves hot reload notifications when a reload server is set.
	// Default: "/_nimble/reload".
	ReloadPath string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	// Default: 4096.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the origin of live session upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string

	// SessionConfig is the configuration for individual sessions.
	SessionConfig *SessionConfig

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit.
	MaxSessions int

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 10 seconds.
	ReadHeaderTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":3000",
		LivePath:          "/_nimble/live",
		MetricsPath:       "/metrics",
		ReloadPath:        "/_nimble/reload",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		SessionConfig:     DefaultSessionConfig(),
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	clone := *c
	if clone.Address == "" {
		clone.Address = defaults.Address
	}
	if clone.LivePath == "" {
		clone.LivePath = defaults.LivePath
	}
	if clone.MetricsPath == "" {
		clone.MetricsPath = defaults.MetricsPath
	}
	if clone.ReloadPath == "" {
		clone.ReloadPath = defaults.ReloadPath
	}
	if clone.ReadBufferSize == 0 {
		clone.ReadBufferSize = defaults.ReadBufferSize
	}
	if clone.WriteBufferSize == 0 {
		clone.WriteBufferSize = defaults.WriteBufferSize
	}
	if clone.CheckOrigin == nil {
		clone.CheckOrigin = defaults.CheckOrigin
	}
	if clone.SessionConfig == nil {
		clone.SessionConfig = defaults.SessionConfig
	}
	if clone.ShutdownTimeout == 0 {
		clone.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if clone.ReadHeaderTimeout == 0 {
		clone.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	return &clone
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}
