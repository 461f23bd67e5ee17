// Package server exposes the relay over HTTP.
//
// Routes:
//   - GET /         static service identity
//   - GET /health   database, listener and fan-out status
//   - GET /api/eod  API-key gated closing price lookup
//   - GET /ws       API-key gated WebSocket stream of change notifications
//
// Boundary error mapping lives here and nowhere else.
package server
