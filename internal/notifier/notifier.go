package notifier

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/metrics"
)

// Publisher accepts committed events for delivery. Publish never blocks on
// delivery and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, evs ...events.Event)
}

// Sink is a transport that events are delivered to (websocket clients, GCP
// pubsub, Slack). A Sink may ignore events it has no use for.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev events.Event) error
}

const (
	defaultQueueSize   = 256
	defaultSinkTimeout = 10 * time.Second
)

var _ Publisher = (*Dispatcher)(nil)

// Dispatcher fans events out to every sink in the order they were published.
// A failing sink is logged and counted and does not affect the other sinks.
type Dispatcher struct {
	sinks   []Sink
	metrics metrics.Metrics
	queue   chan events.Event
	timeout time.Duration
}

// NewDispatcher creates a Dispatcher. Call Run to start delivering.
func NewDispatcher(m metrics.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		metrics: m,
		queue:   make(chan events.Event, defaultQueueSize),
		timeout: defaultSinkTimeout,
	}
}

// Publish enqueues evs. When the queue is full the event is dropped.
func (d *Dispatcher) Publish(ctx context.Context, evs ...events.Event) {
	for _, ev := range evs {
		select {
		case d.queue <- ev:
		default:
			log.Warn("Event queue full, dropping event", "event", ev.Name, "eventID", ev.ID)
			d.metrics.IncEventDispatchFailed()
		}
	}
}

// Run delivers queued events until ctx is done, then drains what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Info("Event dispatcher started", "sinks", len(d.sinks))
	for {
		select {
		case ev := <-d.queue:
			d.Deliver(context.WithoutCancel(ctx), ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.queue:
					d.Deliver(context.WithoutCancel(ctx), ev)
				default:
					log.Info("Event dispatcher stopped")
					return
				}
			}
		}
	}
}

// Deliver sends ev to every sink synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, ev events.Event) {
	for _, s := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Deliver(sinkCtx, ev)
		cancel()
		if err != nil {
			log.Warn("Failed to deliver event", "sink", s.Name(), "event", ev.Name, "eventID", ev.ID, "error", err)
			d.metrics.IncEventDispatchFailed()
			continue
		}
		log.Debug("Delivered event", "sink", s.Name(), "event", ev.Name, "eventID", ev.ID)
		d.metrics.IncEventsDispatched()
	}
}
