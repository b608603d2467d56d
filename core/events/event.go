package events

// Event represents a structured state change emitted by a native module.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. resolvers,
// indexers watching for escrow creation and secret reveals).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose callers do not care about events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
