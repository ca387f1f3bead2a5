package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the redis channel device reports travel on.
const DefaultChannel = "scoreboard_updates"

// Bridge relays device reports through a redis channel, so the processes
// holding device sockets do not need database access.
type Bridge struct {
	rdb     *redis.Client
	channel string
}

// NewBridge creates a Bridge on channel.
func NewBridge(rdb *redis.Client, channel string) *Bridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bridge{rdb: rdb, channel: channel}
}

// Publish sends r to every subscriber of the channel.
func (b *Bridge) Publish(ctx context.Context, r Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}
	return nil
}

// Subscription is an open subscription to the report channel.
type Subscription struct {
	ps      *redis.PubSub
	channel string
}

// Subscribe subscribes to the channel and waits for the server to confirm.
func (b *Bridge) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	log.Info("Listening for scoreboard reports", "channel", b.channel)
	return &Subscription{ps: ps, channel: b.channel}, nil
}

// Serve passes each report to handle until ctx is done or the subscription
// is closed. Malformed messages and handler errors are logged and skipped.
func (s *Subscription) Serve(ctx context.Context, handle Handler) error {
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var r Report
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				log.Warn("Discarding malformed scoreboard report", "channel", s.channel, "error", err)
				continue
			}
			if err := handle(ctx, r); err != nil {
				log.Error("Failed to handle scoreboard report", "deviceID", r.DeviceID, "error", err)
			}
		}
	}
}

func (s *Subscription) Close() error {
	return s.ps.Close()
}
