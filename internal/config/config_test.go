package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  addr: ":9000"
database:
  host: localhost
  port: 5432
  name: stocks
  user: relay
  password: relaypass
listener:
  channel: price_events
  retry: false
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Listener.Channel != "price_events" {
		t.Errorf("Listener.Channel = %q, want %q", cfg.Listener.Channel, "price_events")
	}
	if cfg.Listener.RetryEnabled() {
		t.Error("Listener.RetryEnabled() = true, want false")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("POSTGRES_USER", "envuser")
	t.Setenv("POSTGRES_PASSWORD", "secret123")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "market")

	yaml := `
database:
  host: ${POSTGRES_HOST}
  name: ${POSTGRES_DB}
  user: ${POSTGRES_USER}
  password: ${POSTGRES_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "db" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db")
	}
	if cfg.Database.Name != "market" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "market")
	}
	if cfg.Database.User != "envuser" {
		t.Errorf("Database.User = %q, want %q", cfg.Database.User, "envuser")
	}
	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  host: localhost
  name: stocks
  user: relay
  password: relaypass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want default %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
	if cfg.Listener.Channel != "stock_updates" {
		t.Errorf("Listener.Channel = %q, want %q", cfg.Listener.Channel, "stock_updates")
	}
	if cfg.Listener.KeepaliveInterval != DefaultKeepaliveInterval {
		t.Errorf("Listener.KeepaliveInterval = %v, want default %v", cfg.Listener.KeepaliveInterval, DefaultKeepaliveInterval)
	}
	if cfg.Listener.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("Listener.ReconnectBaseDelay = %v, want default %v", cfg.Listener.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if !cfg.Listener.RetryEnabled() {
		t.Error("Listener.RetryEnabled() = false, want true by default")
	}
	if cfg.Relay.QueueSize != DefaultQueueSize {
		t.Errorf("Relay.QueueSize = %d, want default %d", cfg.Relay.QueueSize, DefaultQueueSize)
	}
	if cfg.Relay.IdleTimeout != 0 {
		t.Errorf("Relay.IdleTimeout = %v, want 0 (disabled)", cfg.Relay.IdleTimeout)
	}
	if cfg.Auth.Header != "X-API-Key" {
		t.Errorf("Auth.Header = %q, want %q", cfg.Auth.Header, "X-API-Key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after defaults: %v", err)
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	_, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "read config file") {
		t.Errorf("error = %q, want read config file prefix", err.Error())
	}
}

func TestLoadAndValidate_Invalid(t *testing.T) {
	path := writeTempFile(t, "database:\n  host: localhost\n")

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Error() != "validate config: database.name is required" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	base := func() RelayConfig {
		cfg := RelayConfig{
			Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*RelayConfig)
		wantErr string
	}{
		{
			name:    "missing database host",
			mutate:  func(c *RelayConfig) { c.Database.Host = "" },
			wantErr: "database.host is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *RelayConfig) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *RelayConfig) {
				c.Database.MaxConns = 5
				c.Database.MinConns = 10
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "max delay below base delay",
			mutate: func(c *RelayConfig) {
				c.Listener.ReconnectBaseDelay = 10 * time.Second
				c.Listener.ReconnectMaxDelay = time.Second
			},
			wantErr: "listener.reconnect_max_delay (1s) cannot be less than reconnect_base_delay (10s)",
		},
		{
			name:    "negative jitter",
			mutate:  func(c *RelayConfig) { c.Listener.Jitter = -time.Second },
			wantErr: "listener.jitter must be >= 0",
		},
		{
			name:    "zero queue size",
			mutate:  func(c *RelayConfig) { c.Relay.QueueSize = -1 },
			wantErr: "relay.queue_size must be >= 1",
		},
		{
			name: "idle timeout not above ping interval",
			mutate: func(c *RelayConfig) {
				c.Relay.PingInterval = 30 * time.Second
				c.Relay.IdleTimeout = 10 * time.Second
			},
			wantErr: "relay.idle_timeout (10s) must exceed ping_interval (30s)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *RelayConfig) { c.Log.Level = "verbose" },
			wantErr: `log.level "verbose" is not one of debug, info, warn, error`,
		},
		{
			name:    "valid config",
			mutate:  func(c *RelayConfig) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
