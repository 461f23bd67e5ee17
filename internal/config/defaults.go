package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr         = ":8000"
	DefaultReadHeaderTimeout  = 10 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultChannel            = "stock_updates"
	DefaultKeepaliveInterval  = 60 * time.Second
	DefaultReconnectBaseDelay = 5 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultJitter             = 1 * time.Second
	DefaultQueueSize          = 1024
	DefaultSessionBuffer      = 64
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultAuthHeader         = "X-API-Key"
	DefaultAuthQueryParam     = "api_key"
	DefaultLogLevel           = "info"
)

func (c *RelayConfig) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database)

	// Listener defaults
	if c.Listener.Channel == "" {
		c.Listener.Channel = DefaultChannel
	}
	if c.Listener.KeepaliveInterval == 0 {
		c.Listener.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if c.Listener.ReconnectBaseDelay == 0 {
		c.Listener.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Listener.ReconnectMaxDelay == 0 {
		c.Listener.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Listener.Jitter == 0 {
		c.Listener.Jitter = DefaultJitter
	}

	// Relay defaults
	if c.Relay.QueueSize == 0 {
		c.Relay.QueueSize = DefaultQueueSize
	}
	if c.Relay.SessionBuffer == 0 {
		c.Relay.SessionBuffer = DefaultSessionBuffer
	}
	if c.Relay.WriteTimeout == 0 {
		c.Relay.WriteTimeout = DefaultWriteTimeout
	}
	if c.Relay.PingInterval == 0 {
		c.Relay.PingInterval = DefaultPingInterval
	}

	// Auth defaults
	if c.Auth.Header == "" {
		c.Auth.Header = DefaultAuthHeader
	}
	if c.Auth.QueryParam == "" {
		c.Auth.QueryParam = DefaultAuthQueryParam
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
