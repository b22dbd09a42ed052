package rules

import "sync"

// LoadedEvent carries the outcome of a successfully loaded document.
//
// The event reports the accepted rule count rather than echoing the raw
// text: listeners that need the document itself can read it back through
// Service.Document(), and a count keeps event payloads constant-size.
type LoadedEvent struct {
	// Rules is the number of rules accepted from the document.
	Rules int

	// Bytes is the size of the accepted document.
	Bytes int
}

// Hub fans out load lifecycle events to registered listeners.
//
// Two channels exist: load-succeeded and load/parse/save-error. Listeners
// are invoked synchronously in registration order; each listener sees every
// event in emission order. No event is dropped: every early-return failure
// path in parsing and persistence emits exactly one error event.
type Hub struct {
	mu       sync.Mutex
	onLoaded []func(LoadedEvent)
	onError  []func(reason string)
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{}
}

// OnLoaded registers a listener for load-succeeded events.
func (h *Hub) OnLoaded(fn func(LoadedEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLoaded = append(h.onLoaded, fn)
}

// OnError registers a listener for load/parse/save-error events.
// The reason string is short and human-readable.
func (h *Hub) OnError(fn func(reason string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// emitLoaded notifies all loaded listeners in registration order.
func (h *Hub) emitLoaded(ev LoadedEvent) {
	h.mu.Lock()
	listeners := make([]func(LoadedEvent), len(h.onLoaded))
	copy(listeners, h.onLoaded)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// emitError notifies all error listeners in registration order.
func (h *Hub) emitError(reason string) {
	h.mu.Lock()
	listeners := make([]func(string), len(h.onError))
	copy(listeners, h.onError)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
}
