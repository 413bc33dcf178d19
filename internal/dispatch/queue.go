// Package dispatch moves accepted submissions onto a queue so notification
// fan-out (email, CRM) happens off the request path.
package dispatch

import "context"

// Message is a received queue entry. ReceiptHandle is empty for queues that
// do not require explicit acknowledgement.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Queue is the transport the publisher and worker share. Implementations:
// SQSQueue for deployment, MemoryQueue for local runs and tests.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}
