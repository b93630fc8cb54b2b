package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/pkg/metrics"
	"github.com/nimble-go/nimble/pkg/route"
	"github.com/nimble-go/nimble/pkg/scope"
)

// Session is one live connection and the page it drives.
type Session struct {
	id      string
	ip      string
	conn    *websocket.Conn
	config  *SessionConfig
	page    *scope.Page
	match   route.Match
	created time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes access to page.
	mu       sync.Mutex
	lastHTML string
	events   atomic.Int64

	writeMu    sync.Mutex
	lastActive atomic.Int64

	closeOnce sync.Once
	done      chan struct{}

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:32]
	}
	return hex.EncodeToString(b)
}

func newSession(conn *websocket.Conn, page *scope.Page, match route.Match, ip string, config *SessionConfig, m *metrics.Metrics, logger *slog.Logger) *Session {
	id := generateSessionID()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		ip:      ip,
		conn:    conn,
		config:  config,
		page:    page,
		match:   match,
		created: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		metrics: m,
		logger:  logger.With("session", id, "page", page.Name()),
	}
	s.touch()
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// IP returns the client address the session was opened from.
func (s *Session) IP() string { return s.ip }

// Route returns the route the session was opened for.
func (s *Session) Route() route.Match { return s.match }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastActive returns the time of the last client message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// HTML returns the current markup of the session's page.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.HTML()
}

// handle processes one client message.
func (s *Session) handle(msg ClientMessage) {
	if msg.Type != MessageEvent || msg.Event == "" {
		s.sendError(errors.New("N040").WithDetail("Unexpected message type " + string(msg.Type)))
		return
	}
	s.events.Add(1)
	if s.metrics != nil {
		s.metrics.EventDispatched(msg.Event)
	}

	s.mu.Lock()
	_, err := s.page.Dispatch(s.ctx, msg.Scope, msg.Path, msg.Event, msg.Detail)
	html := s.page.HTML()
	changed := html != s.lastHTML
	s.lastHTML = html
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("dispatch failed", "event", msg.Event, "path", msg.Path, "error", err)
		s.sendError(errors.New("N021").Wrap(err))
		return
	}
	if changed {
		s.send(ServerMessage{Type: MessageRender, HTML: html})
	}
}

// sendRender sends the full page markup.
func (s *Session) sendRender() error {
	s.mu.Lock()
	html := s.page.HTML()
	s.lastHTML = html
	s.mu.Unlock()
	return s.send(ServerMessage{Type: MessageRender, HTML: html})
}

func (s *Session) sendError(err *errors.Error) {
	s.send(ServerMessage{Type: MessageError, Code: err.Code, Error: err.Error()})
}

// send writes msg. Writes are serialized; a failed write closes the session.
func (s *Session) send(msg ServerMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		if s.metrics != nil {
			s.metrics.WSError("write")
		}
		s.logger.Debug("write failed", "error", err)
		go s.Close()
		return err
	}
	return nil
}

// Close ends the session and releases its page.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)

		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.conn.Close()

		s.mu.Lock()
		s.page.Close()
		s.mu.Unlock()

		s.logger.Debug("session closed", "events", s.events.Load(), "duration", time.Since(s.created))
	})
}

// Stats returns session statistics.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		ID:         s.id,
		Page:       s.page.Name(),
		Path:       s.match.Full,
		Events:     s.events.Load(),
		CreatedAt:  s.created,
		LastActive: s.LastActive(),
	}
}

// SessionStats describes a session.
type SessionStats struct {
	ID         string
	Page       string
	Path       string
	Events     int64
	CreatedAt  time.Time
	LastActive time.Time
}
