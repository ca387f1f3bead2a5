package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)

func TestDeliver_IsolatesFailingSinks(t *testing.T) {
	failing := NewMock()
	failing.DeliverFunc = func(events.Event) error { return errors.New("unreachable") }
	healthy := NewMock()
	m := metrics.NewMock()

	d := NewDispatcher(m, failing, healthy)
	ev := events.New(events.ScoreUpdated, nil, at)
	d.Deliver(context.Background(), ev)

	require.Len(t, healthy.Delivered(), 1)
	assert.Equal(t, ev.ID, healthy.Delivered()[0].ID)
	assert.Len(t, failing.Delivered(), 1)
	assert.Equal(t, 1, m.EventsDispatched())
	assert.Equal(t, 1, m.EventDispatchFailed())
}

func TestRun_DeliversInOrder(t *testing.T) {
	sink := NewMock()
	d := NewDispatcher(metrics.NewMock(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	first := events.New(events.MatchStateChanged, nil, at)
	second := events.New(events.ScoreUpdated, nil, at)
	d.Publish(context.Background(), first, second)

	assert.Eventually(t, func() bool { return len(sink.Delivered()) == 2 }, time.Second, 5*time.Millisecond)
	got := sink.Delivered()
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	m := metrics.NewMock()
	d := NewDispatcher(m)
	d.queue = make(chan events.Event, 1)

	d.Publish(context.Background(), events.New(events.ScoreUpdated, nil, at), events.New(events.ScoreUpdated, nil, at))
	assert.Equal(t, 1, m.EventDispatchFailed())
	assert.Len(t, d.queue, 1)
}
