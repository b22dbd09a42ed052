package rules

import "sync"

// fakeInput is a hand-rolled BinaryInput that lets tests drive transitions
// and observe watcher registration.
type fakeInput struct {
	mu       sync.Mutex
	nextID   int
	watchers map[int]func(bool)
}

func newFakeInput() *fakeInput {
	return &fakeInput{watchers: make(map[int]func(bool))}
}

func (f *fakeInput) Watch(fn func(pressed bool)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, id)
	}
}

func (f *fakeInput) press()   { f.dispatch(true) }
func (f *fakeInput) release() { f.dispatch(false) }

func (f *fakeInput) dispatch(pressed bool) {
	f.mu.Lock()
	fns := make([]func(bool), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(pressed)
	}
}

func (f *fakeInput) watcherCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// fakeSwitch records operations in call order.
type fakeSwitch struct {
	mu    sync.Mutex
	on    bool
	calls []string
	err   error
}

func (f *fakeSwitch) TurnOn() error  { return f.record("turn_on", func() { f.on = true }) }
func (f *fakeSwitch) TurnOff() error { return f.record("turn_off", func() { f.on = false }) }
func (f *fakeSwitch) Toggle() error  { return f.record("toggle", func() { f.on = !f.on }) }

func (f *fakeSwitch) record(op string, apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	apply()
	f.calls = append(f.calls, op)
	return nil
}

func (f *fakeSwitch) state() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

func (f *fakeSwitch) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeLight records SetState and Toggle operations.
type fakeLight struct {
	mu    sync.Mutex
	on    bool
	calls []string
}

func (f *fakeLight) SetState(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = on
	if on {
		f.calls = append(f.calls, "set_on")
	} else {
		f.calls = append(f.calls, "set_off")
	}
	return nil
}

func (f *fakeLight) Toggle() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = !f.on
	f.calls = append(f.calls, "toggle")
	return nil
}

func (f *fakeLight) state() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// fakeResolver resolves identifiers against fixed maps.
type fakeResolver struct {
	inputs   map[string]*fakeInput
	switches map[string]*fakeSwitch
	lights   map[string]*fakeLight
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		inputs:   make(map[string]*fakeInput),
		switches: make(map[string]*fakeSwitch),
		lights:   make(map[string]*fakeLight),
	}
}

func (f *fakeResolver) BinaryInput(id string) (BinaryInput, bool) {
	in, ok := f.inputs[id]
	if !ok {
		return nil, false
	}
	return in, true
}

func (f *fakeResolver) Switch(id string) (Switch, bool) {
	sw, ok := f.switches[id]
	if !ok {
		return nil, false
	}
	return sw, true
}

func (f *fakeResolver) Light(id string) (Light, bool) {
	l, ok := f.lights[id]
	if !ok {
		return nil, false
	}
	return l, true
}
