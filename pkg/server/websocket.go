package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nimble-go/nimble/internal/errors"
)

// Start sends the initial render and runs the session until the connection
// closes. It blocks.
func (s *Session) Start() {
	if err := s.sendRender(); err != nil {
		s.Close()
		return
	}
	go s.pingLoop()
	s.ReadLoop()
}

// ReadLoop reads client messages and handles them in order. It blocks until
// the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "error", err)
				if s.metrics != nil {
					s.metrics.WSError("read")
				}
			}
			return
		}

		s.touch()
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if s.metrics != nil {
				s.metrics.WSError("decode")
			}
			s.sendError(errors.New("N040").Wrap(err))
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			s.writeMu.Unlock()
			if err != nil {
				s.Close()
				return
			}
		}
	}
}
