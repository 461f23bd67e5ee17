// Package database provides connection pool management for the relay's PostgreSQL store.
//
// The relay holds two kinds of connections:
//   - a pgxpool.Pool for request-path reads (clients, historical_prices)
//   - one dedicated pgx.Conn owned by the change listener for LISTEN/NOTIFY
//
// The listener connection is dialed from the same connection string so both share
// credentials and TLS settings.
package database
