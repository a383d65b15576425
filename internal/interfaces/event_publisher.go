package interfaces

// EventPublisher pushes progress and state-change events to connected UI
// clients. Publishing is best-effort and must never block the caller.
type EventPublisher interface {
	Publish(event string, payload interface{})
}
