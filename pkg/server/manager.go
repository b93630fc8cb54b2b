package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/nimble-go/nimble/pkg/metrics"
)

// ErrTooManySessions is returned when MaxSessions is reached.
var ErrTooManySessions = stderrors.New("server: too many sessions")

// SessionManager tracks live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int

	total int64
	peak  int

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSessionManager creates a manager admitting at most max sessions; 0
// means no limit. m may be nil.
func NewSessionManager(max int, m *metrics.Metrics, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		max:      max,
		metrics:  m,
		logger:   logger,
	}
}

// Full reports whether no further session would be admitted.
func (sm *SessionManager) Full() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.max > 0 && len(sm.sessions) >= sm.max
}

// Add tracks s.
func (sm *SessionManager) Add(s *Session) error {
	sm.mu.Lock()
	if sm.max > 0 && len(sm.sessions) >= sm.max {
		sm.mu.Unlock()
		return ErrTooManySessions
	}
	sm.sessions[s.id] = s
	sm.total++
	if len(sm.sessions) > sm.peak {
		sm.peak = len(sm.sessions)
	}
	sm.mu.Unlock()

	if sm.metrics != nil {
		sm.metrics.SessionOpened()
	}
	sm.logger.Info("session opened", "session", s.id, "page", s.page.Name(), "ip", s.ip)
	return nil
}

// Remove stops tracking the session with the given ID and closes it.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}

	s.Close()
	if sm.metrics != nil {
		sm.metrics.SessionClosed()
	}
	sm.logger.Info("session closed", "session", id)
}

// Get returns a session by ID.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for every session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	list := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	sm.mu.RUnlock()

	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

// Broadcast sends msg to every session.
func (sm *SessionManager) Broadcast(msg ServerMessage) {
	sm.ForEach(func(s *Session) bool {
		s.send(msg)
		return true
	})
}

// Shutdown closes every session. It returns ctx.Err() if ctx ends first.
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	var ids []string
	sm.ForEach(func(s *Session) bool {
		ids = append(ids, s.id)
		return true
	})

	done := make(chan struct{})
	go func() {
		for _, id := range ids {
			sm.Remove(id)
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns manager statistics.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return ManagerStats{
		Active: len(sm.sessions),
		Total:  sm.total,
		Peak:   sm.peak,
	}
}

// ManagerStats describes session manager state.
type ManagerStats struct {
	Active int
	Total  int64
	Peak   int
}
