package events

import (
	"context"
	"sync"
	"time"

	"hearth/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultDeliveryTimeout = 5 * time.Second

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Dispatcher queues events in a bounded buffer and fans each one out to all
// sinks from a single background worker.
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	timeout time.Duration
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started bool
}

// NewDispatcher creates a dispatcher with the given buffer size. Call Start
// before publishing.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		queue:   make(chan Event, buffer),
		sinks:   sinks,
		timeout: defaultDeliveryTimeout,
		log:     logger.Named("events"),
		done:    make(chan struct{}),
	}
}

// Start launches the delivery worker. It stops when Close is called; ctx
// bounds in-flight deliveries.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for event := range d.queue {
			d.deliver(ctx, event)
		}
	}()
}

// Publish enqueues event without blocking. When the buffer is full or the
// dispatcher is closed the event is dropped and logged.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warnw("Dropping event, dispatcher closed", "event_id", event.ID, "kind", event.Kind)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.log.Warnw("Dropping event, buffer full", "event_id", event.ID, "kind", event.Kind, "buffer", cap(d.queue))
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range d.sinks {
		g.Go(func() error {
			if err := sink.Deliver(gctx, event); err != nil {
				d.log.Errorw("Event delivery failed",
					"sink", sink.Name(),
					"event_id", event.ID,
					"kind", event.Kind,
					"error", err,
				)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
}
