package testutil

import (
	"sync"

	"hearth/internal/events"
)

// EventRecorder is an events.Publisher that keeps every published event.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish implements events.Publisher.
func (r *EventRecorder) Publish(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// OfKind returns the recorded events of the given kind.
func (r *EventRecorder) OfKind(kind events.Kind) []events.Event {
	var out []events.Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
