package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Listener.Channel == "" {
		return errors.New("listener.channel is required")
	}
	if c.Listener.KeepaliveInterval <= 0 {
		return errors.New("listener.keepalive_interval must be > 0")
	}
	if c.Listener.ReconnectBaseDelay <= 0 {
		return errors.New("listener.reconnect_base_delay must be > 0")
	}
	if c.Listener.ReconnectMaxDelay < c.Listener.ReconnectBaseDelay {
		return fmt.Errorf("listener.reconnect_max_delay (%s) cannot be less than reconnect_base_delay (%s)",
			c.Listener.ReconnectMaxDelay, c.Listener.ReconnectBaseDelay)
	}
	if c.Listener.Jitter < 0 {
		return errors.New("listener.jitter must be >= 0")
	}

	if c.Relay.QueueSize < 1 {
		return errors.New("relay.queue_size must be >= 1")
	}
	if c.Relay.SessionBuffer < 1 {
		return errors.New("relay.session_buffer must be >= 1")
	}
	if c.Relay.WriteTimeout <= 0 {
		return errors.New("relay.write_timeout must be > 0")
	}
	if c.Relay.PingInterval <= 0 {
		return errors.New("relay.ping_interval must be > 0")
	}
	if c.Relay.IdleTimeout < 0 {
		return errors.New("relay.idle_timeout must be >= 0")
	}
	if c.Relay.IdleTimeout > 0 && c.Relay.IdleTimeout <= c.Relay.PingInterval {
		return fmt.Errorf("relay.idle_timeout (%s) must exceed ping_interval (%s)",
			c.Relay.IdleTimeout, c.Relay.PingInterval)
	}

	if c.Auth.Header == "" {
		return errors.New("auth.header is required")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
	}
}
