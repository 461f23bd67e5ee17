// Package listener implements the Change Listener component.
//
// The Change Listener:
//   - Holds one dedicated connection subscribed with LISTEN to a single channel
//   - Hands every NOTIFY payload to a publisher without waiting on delivery
//   - Pings the idle connection at a fixed interval so it does not time out
//   - Reconnects with exponential backoff and bounded jitter after any failure
package listener
