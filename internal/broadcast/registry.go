package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks open sessions and fans payloads out to them.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]Session

	// Stats
	statsMu      sync.Mutex
	registered   int64
	unregistered int64
	broadcasts   int64
	delivered    int64
	dropped      int64
}

// BroadcastResult summarizes a single Broadcast call.
type BroadcastResult struct {
	Targets   int // Sessions in the snapshot
	Delivered int // Sends that succeeded
	Dropped   int // Sessions removed because their send failed
}

// RegistryStats contains runtime statistics.
type RegistryStats struct {
	Active       int
	Registered   int64
	Unregistered int64
	Broadcasts   int64
	Delivered    int64
	Dropped      int64
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		sessions: make(map[uuid.UUID]Session),
	}
}

// Register adds a session to the live set.
// Returns false if a session with the same ID is already registered.
func (r *Registry) Register(s Session) bool {
	r.mu.Lock()
	if _, exists := r.sessions[s.ID()]; exists {
		r.mu.Unlock()
		return false
	}
	r.sessions[s.ID()] = s
	active := len(r.sessions)
	r.mu.Unlock()

	r.statsMu.Lock()
	r.registered++
	r.statsMu.Unlock()

	r.logger.Debug("session registered", "session", s.ID(), "active", active)
	return true
}

// Unregister removes a session if present. Removing an absent session is a no-op.
// Returns true only for the call that actually removed it.
func (r *Registry) Unregister(s Session) bool {
	r.mu.Lock()
	current, exists := r.sessions[s.ID()]
	if !exists || current != s {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.ID())
	active := len(r.sessions)
	r.mu.Unlock()

	r.statsMu.Lock()
	r.unregistered++
	r.statsMu.Unlock()

	r.logger.Debug("session unregistered", "session", s.ID(), "active", active)
	return true
}

// Broadcast sends payload to every session registered when the call begins.
// A session whose send fails is removed and closed; delivery to the others continues.
func (r *Registry) Broadcast(payload []byte) BroadcastResult {
	targets := r.snapshot()
	result := BroadcastResult{Targets: len(targets)}

	for _, s := range targets {
		err := s.Send(payload)
		if err == nil {
			result.Delivered++
			continue
		}

		if IsPeerGone(err) {
			r.logger.Debug("dropping unreachable session", "session", s.ID(), "error", err)
		} else {
			r.logger.Warn("send to session failed, dropping", "session", s.ID(), "error", err)
		}
		r.drop(s)
		result.Dropped++
	}

	r.statsMu.Lock()
	r.broadcasts++
	r.delivered += int64(result.Delivered)
	r.dropped += int64(result.Dropped)
	r.statsMu.Unlock()

	return result
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats returns registry statistics.
func (r *Registry) Stats() RegistryStats {
	active := r.Len()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return RegistryStats{
		Active:       active,
		Registered:   r.registered,
		Unregistered: r.unregistered,
		Broadcasts:   r.broadcasts,
		Delivered:    r.delivered,
		Dropped:      r.dropped,
	}
}

// CloseAll removes and closes every session. Used at shutdown.
func (r *Registry) CloseAll() {
	for _, s := range r.snapshot() {
		r.drop(s)
	}
}

// snapshot copies the live set under the read lock.
func (r *Registry) snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) drop(s Session) {
	r.Unregister(s)
	if err := s.Close(); err != nil {
		r.logger.Debug("close dropped session", "session", s.ID(), "error", err)
	}
}
