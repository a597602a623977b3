package events

import (
	"context"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Publisher delivers session and chat events to interested parties.
// Implementations must not block the caller for long; they are invoked from session actors.
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// Fanout publishes every event to each of its publishers in order
type Fanout []Publisher

// Ensure Fanout implements Publisher
var _ Publisher = Fanout(nil)

// NewFanout creates a Fanout, skipping nil publishers
func NewFanout(publishers ...Publisher) Fanout {
	f := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			f = append(f, p)
		}
	}
	return f
}

// Publish delivers the event to every publisher
func (f Fanout) Publish(ctx context.Context, event model.Event) {
	for _, p := range f {
		p.Publish(ctx, event)
	}
}

// Nop discards all events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, model.Event) {}

// Recorder buffers published events in memory for inspection in tests
type Recorder struct {
	ch chan model.Event
}

// NewRecorder creates a Recorder buffering up to size events; further events are dropped
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan model.Event, size)}
}

// Publish records the event without blocking
func (r *Recorder) Publish(_ context.Context, event model.Event) {
	select {
	case r.ch <- event:
	default:
	}
}

// Events returns the channel of recorded events
func (r *Recorder) Events() <-chan model.Event {
	return r.ch
}
