package broadcast

import (
	"errors"
	"net"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Errors a Session returns from Send when its peer can no longer be reached.
var (
	ErrSessionClosed  = errors.New("session closed")
	ErrSendBufferFull = errors.New("session send buffer full")
)

// Session is one open streaming connection as seen by the registry.
// The registry compares sessions with ==, so implementations must be
// pointer types.
type Session interface {
	// ID identifies the session. Two sessions never share an ID.
	ID() uuid.UUID

	// Send queues data for delivery. It must not block on the network.
	Send(data []byte) error

	// Close tears down the underlying connection. Safe to call more than once.
	Close() error
}

// IsPeerGone reports whether err means the remote end is gone or too slow to keep,
// as opposed to a fault on our side.
func IsPeerGone(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSessionClosed),
		errors.Is(err, ErrSendBufferFull),
		errors.Is(err, websocket.ErrCloseSent),
		errors.Is(err, net.ErrClosed):
		return true
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
