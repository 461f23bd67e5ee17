package listener

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn is the subset of *pgx.Conn the listener needs.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// DialFunc opens a new dedicated connection.
type DialFunc func(ctx context.Context) (Conn, error)

// PGDialer returns a DialFunc that connects with pgx.
func PGDialer(connString string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, connString)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Publisher receives notification payloads. Publish must not block.
type Publisher interface {
	Publish(payload string) bool
}

// State is the listener's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures the listener.
type Config struct {
	Channel            string        // NOTIFY channel, e.g. stock_updates
	KeepaliveInterval  time.Duration // Ping the connection after this much silence
	ReconnectBaseDelay time.Duration // First retry delay
	ReconnectMaxDelay  time.Duration // Backoff ceiling
	Jitter             time.Duration // Random extra delay in [0, Jitter)
	Retry              bool          // false = stop after the first failure
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Channel:            "stock_updates",
		KeepaliveInterval:  60 * time.Second,
		ReconnectBaseDelay: 5 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		Jitter:             time.Second,
		Retry:              true,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	State         State
	Notifications int64
	Dropped       int64 // Payloads the publisher refused
	Connects      int64
	Failures      int64
	LastError     string
}
