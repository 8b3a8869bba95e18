package queue

import "context"

type Sender interface {
	// SendMessage publishes body as JSON to queueName and returns the broker message id
	SendMessage(ctx context.Context, queueName string, body any, attributes map[string]string) (string, error)
}

// QueueResolver checks that a queue exists
type QueueResolver interface {
	QueueURL(ctx context.Context, queueName string) (string, error)
}
