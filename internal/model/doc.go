// Package model defines shared data types used across the stock relay.
//
// All types mirror the database schema:
//   - clients: API credential holders (read-only from the relay)
//   - historical_prices: one closing price per (ticker, recorded_at)
//
// Conventions:
//   - Prices: shopspring/decimal, never float64 in storage or transit
//   - Dates: calendar dates held as midnight UTC time.Time
package model
