package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/vmihailenco/msgpack/v5"
)

// New creates a pubsub client for projectID.
func New(ctx context.Context, projectID string) (PubSubClient, error) {
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return &client{client: pubSubC}, nil
}

// SendMessage publishes data encoded as MessagePack and waits for the
// server to acknowledge it.
func (c *client) SendMessage(ctx context.Context, topic Topic, attributes map[string]string, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return fmt.Errorf("failed to encode message: %w", err)
	}
	message := &pubsub.Message{
		Data:       msgpackData,
		Attributes: attributes,
	}
	result := c.client.Topic(string(topic)).Publish(ctx, message)
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	log.Debug("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	// Unmarshal the MessagePack data into the provided pointer struct
	err := msgpack.Unmarshal(data, returnValue)
	if err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return err
	}
	return nil
}

func (c *client) Close() error {
	return c.client.Close()
}

// Sink forwards every event to a topic.
type Sink struct {
	client PubSubClient
	topic  Topic
}

// NewSink creates a Sink publishing to topic.
func NewSink(client PubSubClient, topic Topic) *Sink {
	return &Sink{client: client, topic: topic}
}

func (s *Sink) Name() string {
	return "pubsub"
}

func (s *Sink) Deliver(ctx context.Context, ev events.Event) error {
	attrs := map[string]string{
		"event":    string(ev.Name),
		"event_id": ev.ID,
	}
	return s.client.SendMessage(ctx, s.topic, attrs, ev)
}
