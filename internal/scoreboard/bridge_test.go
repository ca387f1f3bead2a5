package scoreboard

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewBridge(rdb, "")
}

// listen starts serving the bridge and returns the reports it receives.
func listen(t *testing.T, b *Bridge) <-chan Report {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })

	got := make(chan Report, 10)
	go sub.Serve(ctx, func(_ context.Context, r Report) error {
		got <- r
		return nil
	})
	return got
}

func receive(t *testing.T, got <-chan Report) Report {
	t.Helper()
	select {
	case r := <-got:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no report received")
		return Report{}
	}
}

func TestBridge_PublishAndServe(t *testing.T) {
	b := newTestBridge(t)
	got := listen(t, b)
	ctx := context.Background()

	// Malformed payloads on the channel are skipped.
	require.NoError(t, b.rdb.Publish(ctx, DefaultChannel, "not json").Err())

	require.NoError(t, b.Publish(ctx, Report{DeviceID: "esp-1", ScoreA: 2, ScoreB: 1, Source: SourceHTTP}))
	assert.Equal(t, Report{DeviceID: "esp-1", ScoreA: 2, ScoreB: 1, Source: SourceHTTP}, receive(t, got))
}

func TestDeviceHandler(t *testing.T) {
	b := newTestBridge(t)
	got := listen(t, b)

	srv := httptest.NewServer(DeviceHandler(b))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg string) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	}
	send(`{"score_A": 9, "score_B": 9}`) // before the device identified itself
	send(`{"device_id": "esp-7"}`)
	send(`garbage`)
	send(`{"score_A": 1}`)
	send(`{"score_A": 4, "score_B": 2}`)

	assert.Equal(t, Report{DeviceID: "esp-7", ScoreA: 4, ScoreB: 2, Source: SourceDeviceSocket}, receive(t, got))
	select {
	case r := <-got:
		t.Fatalf("unexpected extra report %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}
