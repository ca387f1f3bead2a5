package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/openplay/internal/events"
)

// Mock is a mock implementation of Publisher and Sink for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	DeliverFunc func(ev events.Event) error

	// Call records
	PublishCalls [][]events.Event
	DeliverCalls []events.Event
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = nil
	m.DeliverCalls = nil
}

func (m *Mock) Publish(ctx context.Context, evs ...events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = append(m.PublishCalls, evs)
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Deliver(ctx context.Context, ev events.Event) error {
	m.mu.Lock()
	m.DeliverCalls = append(m.DeliverCalls, ev)
	m.mu.Unlock()
	if m.DeliverFunc != nil {
		return m.DeliverFunc(ev)
	}
	return nil
}

// Published returns every event passed to Publish, in order.
func (m *Mock) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.Event
	for _, evs := range m.PublishCalls {
		out = append(out, evs...)
	}
	return out
}

// Delivered returns a copy of DeliverCalls.
func (m *Mock) Delivered() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.DeliverCalls...)
}
