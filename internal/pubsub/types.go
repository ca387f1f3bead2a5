package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client *pubsub.Client
}

// Topic is a pubsub topic name.
type Topic string

const (
	// TopicClubEvents carries every domain event for downstream consumers.
	TopicClubEvents Topic = "openplay-club-events"
)
