package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rickgao/stock-relay/internal/broadcast"
	"github.com/rickgao/stock-relay/internal/listener"
	"github.com/rickgao/stock-relay/internal/model"
)

// KeyValidator checks an API key. See auth.Validator.
type KeyValidator interface {
	Validate(ctx context.Context, credential string) (bool, error)
}

// PriceLookup finds one closing price. See eod.Service.
type PriceLookup interface {
	Lookup(ctx context.Context, ticker string, date time.Time) (model.PriceRecord, error)
}

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ListenerStatus exposes change listener state. *listener.Listener satisfies it.
type ListenerStatus interface {
	Stats() listener.Stats
}

// DispatcherStatus exposes dispatch queue state. *broadcast.Dispatcher satisfies it.
type DispatcherStatus interface {
	Stats() broadcast.DispatcherStats
}

// Config configures the HTTP surface.
type Config struct {
	Service        string // Reported by GET /
	Version        string
	AuthHeader     string // e.g. X-API-Key
	AuthQueryParam string // WebSocket-only fallback, e.g. api_key
	SessionBuffer  int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	IdleTimeout    time.Duration // 0 = no idle timeout
	HealthTimeout  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Service:        "stock-relay",
		Version:        "dev",
		AuthHeader:     "X-API-Key",
		AuthQueryParam: "api_key",
		SessionBuffer:  64,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		HealthTimeout:  5 * time.Second,
	}
}

// Deps are the components the server routes to.
// DB, Listener and Dispatcher are optional and only feed /health.
type Deps struct {
	Validator  KeyValidator
	Prices     PriceLookup
	Registry   *broadcast.Registry
	DB         Pinger
	Listener   ListenerStatus
	Dispatcher DispatcherStatus
}

// Server holds the HTTP handlers.
type Server struct {
	cfg      Config
	deps     Deps
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a Server.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.SessionBuffer < 1 {
		cfg.SessionBuffer = def.SessionBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}
	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		upgrader: websocket.Upgrader{
			// Clients are native apps, not browsers.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler wires routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/eod", s.handleEOD)
	})

	return r
}
