package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process Queue used when USE_MEMORY_QUEUE=true. The
// buffer is bounded; Send fails fast when it fills rather than blocking the
// request path.
type MemoryQueue struct {
	ch chan Message
}

// NewMemoryQueue creates a queue holding up to size pending messages.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan Message, size)}
}

func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	msg := Message{ID: uuid.NewString(), Body: body}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("dispatch: memory queue full")
	}
}

// Receive returns up to maxMessages, waiting at most waitSeconds for the
// first one.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	var out []Message

	timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		out = append(out, msg)
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(out) < maxMessages {
		select {
		case msg := <-q.ch:
			out = append(out, msg)
		default:
			return out, nil
		}
	}
	return out, nil
}

// Delete is a no-op; memory messages are consumed on receive.
func (q *MemoryQueue) Delete(ctx context.Context, receiptHandle string) error {
	return nil
}
