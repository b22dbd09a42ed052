package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BinaryInput is a live input entity (wall button, contact sensor). Its
// state is fed in from the protocol bridge via SetState; watchers observe
// press/release transitions.
type BinaryInput struct {
	id   string
	name string

	mu       sync.Mutex
	state    bool
	watchers map[int]func(pressed bool)
	nextID   int
}

func newBinaryInput(id, name string) *BinaryInput {
	return &BinaryInput{
		id:       id,
		name:     name,
		watchers: make(map[int]func(bool)),
	}
}

// ID returns the entity identifier.
func (b *BinaryInput) ID() string { return b.id }

// State returns the current input state.
func (b *BinaryInput) State() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetState applies a new state reported by the hardware bridge. Watchers are
// notified only on transitions; repeated reports of the same state are
// absorbed.
func (b *BinaryInput) SetState(pressed bool) {
	b.mu.Lock()
	if b.state == pressed {
		b.mu.Unlock()
		return
	}
	b.state = pressed
	watchers := make([]func(bool), 0, len(b.watchers))
	for _, fn := range b.watchers {
		watchers = append(watchers, fn)
	}
	b.mu.Unlock()

	for _, fn := range watchers {
		fn(pressed)
	}
}

// Watch registers fn for state transitions and returns a cancel function
// that detaches it. Cancel is idempotent.
func (b *BinaryInput) Watch(fn func(pressed bool)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.watchers, id)
		b.mu.Unlock()
	}
}

// Switch is a live switch entity. Operations update the locally tracked
// state and forward a command to the sink.
type Switch struct {
	id   string
	name string
	sink CommandSink

	mu    sync.Mutex
	state bool
}

func newSwitch(id, name string, sink CommandSink) *Switch {
	return &Switch{id: id, name: name, sink: sink}
}

// ID returns the entity identifier.
func (s *Switch) ID() string { return s.id }

// State returns the last commanded state.
func (s *Switch) State() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TurnOn switches the entity on.
func (s *Switch) TurnOn() error { return s.apply("turn_on", true) }

// TurnOff switches the entity off.
func (s *Switch) TurnOff() error { return s.apply("turn_off", false) }

// Toggle inverts the entity's state.
func (s *Switch) Toggle() error {
	s.mu.Lock()
	next := !s.state
	s.mu.Unlock()
	return s.apply("toggle", next)
}

func (s *Switch) apply(op string, state bool) error {
	cmd := Command{
		ID:        uuid.New().String(),
		EntityID:  s.id,
		Kind:      KindSwitch,
		Operation: op,
		State:     &state,
	}
	if err := s.sink.Send(cmd); err != nil {
		return fmt.Errorf("switch %q: %w", s.id, err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Light is a live light entity. On/off is a single control operation
// parameterized by the target state.
type Light struct {
	id   string
	name string
	sink CommandSink

	mu sync.Mutex
	on bool
}

func newLight(id, name string, sink CommandSink) *Light {
	return &Light{id: id, name: name, sink: sink}
}

// ID returns the entity identifier.
func (l *Light) ID() string { return l.id }

// On returns the last commanded state.
func (l *Light) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// SetState drives the light to the given on/off state.
func (l *Light) SetState(on bool) error { return l.apply("set", on) }

// Toggle inverts the light's state.
func (l *Light) Toggle() error {
	l.mu.Lock()
	next := !l.on
	l.mu.Unlock()
	return l.apply("toggle", next)
}

func (l *Light) apply(op string, on bool) error {
	cmd := Command{
		ID:        uuid.New().String(),
		EntityID:  l.id,
		Kind:      KindLight,
		Operation: op,
		State:     &on,
	}
	if err := l.sink.Send(cmd); err != nil {
		return fmt.Errorf("light %q: %w", l.id, err)
	}
	l.mu.Lock()
	l.on = on
	l.mu.Unlock()
	return nil
}
