// Package broadcast fans out session state-change events to connected
// clients. Delivery is best-effort: a client that misses an event is
// expected to reconcile from a session snapshot.
package broadcast

// Hub is the channel the session layer emits events through.
type Hub interface {
	// Emit sends an event to every connection joined to the session.
	Emit(sessionID, event string, payload any)
}

// NopHub discards all events. Useful when no real-time channel is attached.
type NopHub struct{}

func (NopHub) Emit(sessionID, event string, payload any) {}
