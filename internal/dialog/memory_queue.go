package dialog

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("dialog: utterance queue is full")

// MemoryQueue is a channel-backed Queue for local development and tests.
type MemoryQueue struct {
	ch chan Utterance
}

// NewMemoryQueue creates an in-memory queue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryQueue{ch: make(chan Utterance, capacity)}
}

// Publish enqueues without blocking; a full queue is an error rather than a
// stalled webhook response.
func (q *MemoryQueue) Publish(ctx context.Context, u Utterance) error {
	select {
	case q.ch <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Receive blocks until an utterance arrives or ctx is done.
func (q *MemoryQueue) Receive(ctx context.Context) ([]QueueMessage, error) {
	select {
	case u := <-q.ch:
		return []QueueMessage{{Utterance: u}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Delete is a no-op; channel delivery is already exactly-once.
func (q *MemoryQueue) Delete(context.Context, QueueMessage) error {
	return nil
}
