// Package broadcast implements the Connection Registry and its dispatcher.
//
// The registry:
//   - Tracks every live streaming session by id
//   - Broadcasts over a point-in-time snapshot, never holding the lock while sending
//   - Drops a session the moment a send to it fails, and keeps delivering to the rest
//
// The dispatcher decouples notification arrival from broadcast completion with a
// bounded queue drained by a single goroutine, so payload order is preserved.
package broadcast
