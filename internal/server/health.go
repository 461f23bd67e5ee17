package server

import (
	"context"
	"net/http"

	"github.com/rickgao/stock-relay/internal/listener"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": s.cfg.Service,
		"version": s.cfg.Version,
	})
}

// handleHealth reports component status. Only a dead database is unhealthy;
// a listener that is not subscribed degrades real-time updates but not lookups.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthTimeout)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			s.logger.Error("health check: database ping failed", "error", err)
			health.Status = "unhealthy"
			health.Components["database"] = "disconnected"
		} else {
			health.Components["database"] = "connected"
		}
	}

	if s.deps.Listener != nil {
		ls := s.deps.Listener.Stats()
		health.Components["listener"] = map[string]any{
			"state":         ls.State.String(),
			"notifications": ls.Notifications,
			"dropped":       ls.Dropped,
			"failures":      ls.Failures,
			"last_error":    ls.LastError,
		}
		if ls.State != listener.StateSubscribed && health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	if s.deps.Registry != nil {
		rs := s.deps.Registry.Stats()
		health.Components["sessions"] = map[string]any{
			"active":     rs.Active,
			"broadcasts": rs.Broadcasts,
			"delivered":  rs.Delivered,
			"dropped":    rs.Dropped,
		}
	}

	if s.deps.Dispatcher != nil {
		ds := s.deps.Dispatcher.Stats()
		health.Components["dispatcher"] = map[string]any{
			"published": ds.Published,
			"rejected":  ds.Rejected,
			"queued":    ds.Queue.Count,
			"capacity":  ds.Queue.Capacity,
		}
	}

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}
