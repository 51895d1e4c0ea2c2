package messaging

import (
	"context"
)

// Message is a single opaque payload inside a topic batch.
type Message struct {
	Value string `json:"value"`
}

// TopicBatch is the envelope the producer publishes: every undelivered outbox
// record for one topic, in insertion order.
type TopicBatch struct {
	Topic    string    `json:"topic"`
	Messages []Message `json:"messages"`
}

// Broker defines the interface for message brokers. Delivery is at-least-once;
// consumers deduplicate via the operationUuid carried in every payload.
type Broker interface {
	// PublishBatch publishes all batches in a single transport call. Either
	// the whole call is handed to the transport or an error is returned and
	// no record may be marked sent.
	PublishBatch(ctx context.Context, batches []TopicBatch) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}
