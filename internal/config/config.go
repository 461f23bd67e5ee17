package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Database DBConfig        `yaml:"database"`
	Listener ListenerConfig  `yaml:"listener"`
	Relay    BroadcastConfig `yaml:"relay"`
	Auth     AuthConfig      `yaml:"auth"`
	Log      LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ListenerConfig holds change listener settings.
type ListenerConfig struct {
	Channel            string        `yaml:"channel"`
	KeepaliveInterval  time.Duration `yaml:"keepalive_interval"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	Jitter             time.Duration `yaml:"jitter"`
	Retry              *bool         `yaml:"retry"` // nil = default (true)
}

// RetryEnabled reports whether the listener reconnects after a failure.
func (l ListenerConfig) RetryEnabled() bool {
	return l.Retry == nil || *l.Retry
}

// BroadcastConfig holds fan-out and session settings.
type BroadcastConfig struct {
	QueueSize     int           `yaml:"queue_size"`     // Pending notifications awaiting broadcast
	SessionBuffer int           `yaml:"session_buffer"` // Outbound messages buffered per session
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	PingInterval  time.Duration `yaml:"ping_interval"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"` // 0 = sessions never idle out
}

// AuthConfig names where callers put their API key.
type AuthConfig struct {
	Header     string `yaml:"header"`
	QueryParam string `yaml:"query_param"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
