package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// NoticeKind tells the browser overlay what to do.
type NoticeKind string

const (
	// NoticeError shows Error over the page.
	NoticeError NoticeKind = "error"
	// NoticeClear removes the overlay.
	NoticeClear NoticeKind = "clear"
)

// Notice is one message on the reload socket.
type Notice struct {
	Kind  NoticeKind `json:"type"`
	Error string     `json:"error,omitempty"`
	// Files lists the changed paths that triggered the notice.
	Files []string `json:"files,omitempty"`
}

const (
	noticeBacklog = 8
	writeWait     = 5 * time.Second
)

type reloadClient struct {
	conn  *websocket.Conn
	queue chan []byte
}

// ReloadServer pushes notices to the browsers of a dev server. Each client
// has a small queue; a client that falls behind loses notices instead of
// stalling the others.
type ReloadServer struct {
	mu       sync.Mutex
	clients  map[*reloadClient]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*reloadClient]struct{}),
		upgrader: websocket.Upgrader{
			// Dev servers are reached from whatever host the developer uses.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "reload"),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (rs *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, req, nil)
	if err != nil {
		rs.logger.Debug("upgrade failed", "error", err)
		return
	}
	c := &reloadClient{conn: conn, queue: make(chan []byte, noticeBacklog)}
	rs.mu.Lock()
	rs.clients[c] = struct{}{}
	rs.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for data := range c.queue {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// The browser never sends anything; reading only detects the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	rs.drop(c)
	<-done
}

// Notify sends n to every connected browser.
func (rs *ReloadServer) Notify(n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		rs.logger.Error("encode notice", "error", err)
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for c := range rs.clients {
		select {
		case c.queue <- data:
		default:
			rs.logger.Debug("client queue full, notice dropped", "type", n.Kind)
		}
	}
	rs.logger.Debug("notify", "type", n.Kind, "clients", len(rs.clients))
}

// ClientCount returns the number of connected browsers.
func (rs *ReloadServer) ClientCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.clients)
}

// Close disconnects every browser.
func (rs *ReloadServer) Close() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for c := range rs.clients {
		c.conn.Close()
	}
}

func (rs *ReloadServer) drop(c *reloadClient) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.clients[c]; ok {
		delete(rs.clients, c)
		close(c.queue)
	}
	c.conn.Close()
}

// ClientScript returns the hot reload script for a page, connecting to path.
func ClientScript(path string) string {
	return `<script>
(function() {
    var delay = 1000;
    function connect() {
        var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(proto + '//' + location.host + ` + strconv.Quote(path) + `);
        ws.onopen = function() { delay = 1000; overlay(null); };
        ws.onmessage = function(e) {
            var msg;
            try { msg = JSON.parse(e.data); } catch (err) { return; }
            if (msg.type === 'error') overlay(msg.error);
            if (msg.type === 'clear') overlay(null);
        };
        ws.onclose = function() {
            setTimeout(function() { delay = Math.min(delay * 2, 30000); connect(); }, delay);
        };
    }
    function overlay(text) {
        var el = document.getElementById('nimble-error-overlay');
        if (el) el.remove();
        if (!text) return;
        el = document.createElement('pre');
        el.id = 'nimble-error-overlay';
        el.style.cssText = 'position:fixed;inset:0;margin:0;padding:20px;background:rgba(0,0,0,.9);color:#f55;white-space:pre-wrap;z-index:999999;';
        el.textContent = text;
        document.body.appendChild(el);
    }
    connect();
})();
</script>`
}
