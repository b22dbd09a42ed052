package entity

import "hash/fnv"

// Kind identifies the category of a hardware-backed entity.
type Kind string

const (
	KindBinaryInput Kind = "binary_input"
	KindSwitch      Kind = "switch"
	KindLight       Kind = "light"
)

// AllKinds returns all valid entity kinds.
func AllKinds() []Kind {
	return []Kind{KindBinaryInput, KindSwitch, KindLight}
}

// ObjectKey computes the deterministic 32-bit key for an entity identifier,
// using the FNV-1 hash. Lookups by key and by identifier are equivalent;
// the key exists so wire formats and store slots can carry a fixed-width
// value instead of a string.
func ObjectKey(id string) uint32 {
	h := fnv.New32()
	h.Write([]byte(id)) //nolint:errcheck // hash.Hash never errors
	return h.Sum32()
}

// Info describes a registered entity for introspection.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Key  uint32 `json:"key"`
}

// Command is one outbound operation against a switch or light, forwarded to
// the protocol bridge through a CommandSink.
type Command struct {
	// ID uniquely identifies this command for acknowledgement tracking.
	ID string `json:"id"`

	// EntityID is the target entity's identifier.
	EntityID string `json:"entity_id"`

	// Kind is the target entity's category.
	Kind Kind `json:"kind"`

	// Operation is the command verb: "turn_on", "turn_off", "set", "toggle".
	Operation string `json:"operation"`

	// State carries the resulting on/off state where the operation implies
	// one; nil for operations whose outcome the bridge determines.
	State *bool `json:"state,omitempty"`
}

// CommandSink delivers entity commands to the outside world. Production
// wiring publishes them over MQTT; tests capture them in memory.
type CommandSink interface {
	Send(cmd Command) error
}

// NopSink discards all commands. Useful when no bridge is connected.
type NopSink struct{}

// Send implements CommandSink.
func (NopSink) Send(Command) error { return nil }
