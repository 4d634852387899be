package dialog

import (
	"context"
	"time"
)

// Utterance is one transcribed caller turn awaiting processing.
type Utterance struct {
	CallID      string    `json:"call_id"`
	CallerPhone string    `json:"caller_phone"`
	Text        string    `json:"text"`
	ReceivedAt  time.Time `json:"received_at"`
}

// QueueMessage wraps an utterance with the transport receipt needed to
// acknowledge it.
type QueueMessage struct {
	Utterance Utterance
	// Receipt is transport-specific (an SQS receipt handle); empty for the
	// in-memory queue.
	Receipt string
}

// Queue decouples the webhook surface from utterance processing. The
// in-memory implementation serves dev and tests; SQS serves production.
type Queue interface {
	Publish(ctx context.Context, u Utterance) error
	// Receive blocks until at least one message arrives or ctx is done.
	Receive(ctx context.Context) ([]QueueMessage, error)
	// Delete acknowledges a processed message. At-least-once delivery:
	// a crash between Receive and Delete redelivers.
	Delete(ctx context.Context, msg QueueMessage) error
}
