package entity

import (
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the live hardware-backed entities, looked up by identifier
// or by FNV-1 object key. It owns the entities it creates; automations hold
// borrowed references that the registry keeps alive for its own lifetime.
//
// All public methods are thread-safe.
type Registry struct {
	sink   CommandSink
	logger Logger

	mu       sync.RWMutex
	inputs   map[uint32]*BinaryInput
	switches map[uint32]*Switch
	lights   map[uint32]*Light
}

// NewRegistry creates an empty entity registry. Switch and light commands
// are delivered through sink; pass NopSink when no bridge is connected.
func NewRegistry(sink CommandSink) *Registry {
	if sink == nil {
		sink = NopSink{}
	}
	return &Registry{
		sink:     sink,
		logger:   noopLogger{},
		inputs:   make(map[uint32]*BinaryInput),
		switches: make(map[uint32]*Switch),
		lights:   make(map[uint32]*Light),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddBinaryInput registers a binary input entity under the given identifier.
func (r *Registry) AddBinaryInput(id, name string) (*BinaryInput, error) {
	key := ObjectKey(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(key) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	in := newBinaryInput(id, name)
	r.inputs[key] = in
	r.logger.Debug("entity registered", "kind", KindBinaryInput, "id", id, "key", key)
	return in, nil
}

// AddSwitch registers a switch entity under the given identifier.
func (r *Registry) AddSwitch(id, name string) (*Switch, error) {
	key := ObjectKey(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(key) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	sw := newSwitch(id, name, r.sink)
	r.switches[key] = sw
	r.logger.Debug("entity registered", "kind", KindSwitch, "id", id, "key", key)
	return sw, nil
}

// AddLight registers a light entity under the given identifier.
func (r *Registry) AddLight(id, name string) (*Light, error) {
	key := ObjectKey(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(key) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	l := newLight(id, name, r.sink)
	r.lights[key] = l
	r.logger.Debug("entity registered", "kind", KindLight, "id", id, "key", key)
	return l, nil
}

// existsLocked reports whether any entity occupies the key. A single key
// space across kinds keeps object keys unambiguous on the wire.
func (r *Registry) existsLocked(key uint32) bool {
	if _, ok := r.inputs[key]; ok {
		return true
	}
	if _, ok := r.switches[key]; ok {
		return true
	}
	_, ok := r.lights[key]
	return ok
}

// BinaryInputByKey looks up a binary input by object key.
func (r *Registry) BinaryInputByKey(key uint32) (*BinaryInput, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.inputs[key]
	return in, ok
}

// SwitchByKey looks up a switch by object key.
func (r *Registry) SwitchByKey(key uint32) (*Switch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sw, ok := r.switches[key]
	return sw, ok
}

// LightByKey looks up a light by object key.
func (r *Registry) LightByKey(key uint32) (*Light, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lights[key]
	return l, ok
}

// BinaryInput looks up a binary input by identifier.
func (r *Registry) BinaryInput(id string) (*BinaryInput, bool) {
	return r.BinaryInputByKey(ObjectKey(id))
}

// Switch looks up a switch by identifier.
func (r *Registry) Switch(id string) (*Switch, bool) {
	return r.SwitchByKey(ObjectKey(id))
}

// Light looks up a light by identifier.
func (r *Registry) Light(id string) (*Light, bool) {
	return r.LightByKey(ObjectKey(id))
}

// ApplyInputState routes a bridge-reported state onto the named input.
// Unknown identifiers are logged and dropped; the bridge may report inputs
// this node does not model.
func (r *Registry) ApplyInputState(id string, pressed bool) {
	in, ok := r.BinaryInput(id)
	if !ok {
		r.logger.Warn("state for unknown input", "id", id)
		return
	}
	in.SetState(pressed)
}

// List returns metadata for every registered entity, sorted by identifier.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.inputs)+len(r.switches)+len(r.lights))
	for key, in := range r.inputs {
		infos = append(infos, Info{ID: in.id, Name: in.name, Kind: KindBinaryInput, Key: key})
	}
	for key, sw := range r.switches {
		infos = append(infos, Info{ID: sw.id, Name: sw.name, Kind: KindSwitch, Key: key})
	}
	for key, l := range r.lights {
		infos = append(infos, Info{ID: l.id, Name: l.name, Kind: KindLight, Key: key})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.inputs) + len(r.switches) + len(r.lights)
}
