package rules

// The interfaces below are the runtime's view of the hardware entity
// registry. Handles are borrowed references: the registry owns the entities
// and must keep them alive for as long as any automation references them.
// The runtime never caches handles across rebuilds: resolution is performed
// fresh on every build, since entities could in principle be re-registered.

// BinaryInput is a borrowed handle to a live input entity.
type BinaryInput interface {
	// Watch registers fn for state transitions (true = pressed). The
	// returned cancel function detaches the watcher; it is safe to call
	// more than once.
	Watch(fn func(pressed bool)) (cancel func())
}

// Switch is a borrowed handle to a live switch entity.
type Switch interface {
	TurnOn() error
	TurnOff() error
	Toggle() error
}

// Light is a borrowed handle to a live light entity.
// On/off is a single control operation parameterized by the target state.
type Light interface {
	SetState(on bool) error
	Toggle() error
}

// Resolver maps human-assigned entity identifiers to borrowed handles.
// A false second return means the identifier is not registered; the factory
// reports that as ErrEntityNotFound and never retries.
type Resolver interface {
	BinaryInput(id string) (BinaryInput, bool)
	Switch(id string) (Switch, bool)
	Light(id string) (Light, bool)
}
