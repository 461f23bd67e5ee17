package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/stock-relay/internal/auth"
	"github.com/rickgao/stock-relay/internal/broadcast"
)

// maxInboundSize caps client frames; the relay never reads their content.
const maxInboundSize = 4096

// handleWS upgrades, checks the API key, and holds the session open until
// the peer leaves or a send to it fails.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	credential := auth.FromRequest(r, s.cfg.AuthHeader, s.cfg.AuthQueryParam)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	ok, err := s.deps.Validator.Validate(r.Context(), credential)
	if err != nil {
		closeWith(conn, websocket.CloseInternalServerErr, "credential check failed", s.cfg.WriteTimeout)
		return
	}
	if !ok {
		s.logger.Info("websocket rejected", "remote", r.RemoteAddr, "reason", "invalid api key")
		closeWith(conn, websocket.ClosePolicyViolation, "invalid or inactive api key", s.cfg.WriteTimeout)
		return
	}

	sess := newWSSession(conn, s.cfg, s.logger)
	sess.onClose = func() { s.deps.Registry.Unregister(sess) }
	s.deps.Registry.Register(sess)

	s.logger.Info("websocket session opened", "session", sess.id, "remote", r.RemoteAddr)

	go sess.writePump()
	sess.readPump()

	s.logger.Info("websocket session closed", "session", sess.id)
}

// closeWith sends a close frame with code and drops the connection.
func closeWith(conn *websocket.Conn, code int, reason string, timeout time.Duration) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(timeout),
	)
	conn.Close()
}

// wsSession is one client stream. All writes go through writePump.
type wsSession struct {
	id     uuid.UUID
	conn   *websocket.Conn
	logger *slog.Logger

	writeTimeout time.Duration
	pingInterval time.Duration
	idleTimeout  time.Duration

	send chan []byte
	done chan struct{}

	// State
	mu      sync.RWMutex
	closed  bool
	onClose func()
}

func newWSSession(conn *websocket.Conn, cfg Config, logger *slog.Logger) *wsSession {
	id := uuid.New()
	return &wsSession{
		id:           id,
		conn:         conn,
		logger:       logger.With("session", id),
		writeTimeout: cfg.WriteTimeout,
		pingInterval: cfg.PingInterval,
		idleTimeout:  cfg.IdleTimeout,
		send:         make(chan []byte, cfg.SessionBuffer),
		done:         make(chan struct{}),
	}
}

// ID implements broadcast.Session.
func (s *wsSession) ID() uuid.UUID {
	return s.id
}

// Send implements broadcast.Session. It never blocks.
func (s *wsSession) Send(data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return broadcast.ErrSessionClosed
	}

	select {
	case s.send <- data:
		return nil
	default:
		return broadcast.ErrSendBufferFull
	}
}

// Close implements broadcast.Session. Safe to call more than once.
func (s *wsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

// readPump only detects disconnects; inbound frames are discarded.
func (s *wsSession) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxInboundSize)
	if s.idleTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		})
	}

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				s.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		if s.idleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
	}
}

// writePump delivers queued payloads and keepalive pings, and owns conn teardown.
func (s *wsSession) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return

		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.writeTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("websocket ping failed", "error", err)
				s.Close()
				return
			}
		}
	}
}
