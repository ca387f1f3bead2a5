package pubsub

import "context"

type PubSubClient interface {
	SendMessage(ctx context.Context, topic Topic, attributes map[string]string, data any) error
	ProcessMessage(data []byte, returnValue any) error
	Close() error
}
