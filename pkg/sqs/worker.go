package sqs

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"bloomwatch/pkg/log"
)

// HandlerFunc defines a function that handles a SQS Message
type HandlerFunc func(ctx context.Context, msg types.Message) error

// HandleMessage implements the Handler interface for HandlerFunc
func (f HandlerFunc) HandleMessage(ctx context.Context, msg types.Message) error {
	return f(ctx, msg)
}

// Handler processes a SQS Message. A nil error deletes the message from the queue.
type Handler interface {
	HandleMessage(ctx context.Context, msg types.Message) error
}

// WorkerConfig defines the configuration options for a Worker
type WorkerConfig struct {
	MaxNumberOfMessages int32
	WaitTimeSeconds     int32
	PoolSize            int
	// ErrorBackoff is the pause after a failed ReceiveMessage call
	ErrorBackoff time.Duration
	// VisibilityTimeout hides received messages from other consumers and is
	// extended every VisibilityHeartbeat while the handler runs. Zero keeps the queue default.
	VisibilityTimeout   time.Duration
	VisibilityHeartbeat time.Duration
}

// Worker polls and processes messages from a SQS queue
type Worker struct {
	sqsClient           SQSClient
	queueName           string
	queueURL            string
	maxNumberOfMessages int32
	waitTimeSeconds     int32
	poolSize            int
	errorBackoff        time.Duration
	visibilityTimeout   time.Duration
	visibilityHeartbeat time.Duration
	handler             Handler

	processed atomic.Int64
	failed    atomic.Int64
	mu        sync.RWMutex
	lastPoll  time.Time
	lastError error
}

type HealthStatus string

const (
	StatusUp   HealthStatus = "UP"
	StatusDown HealthStatus = "DOWN"
)

// WorkerHealth reports the state of a Worker's last poll
type WorkerHealth struct {
	Status  HealthStatus
	Details map[string]string
}

// NewWorker creates and returns a new Worker.
//
// If the provided WorkerConfig is nil or its fields are zero,
// the following defaults will be used:
//   - MaxNumberOfMessages: 10
//   - WaitTimeSeconds: 20
//   - PoolSize: 1
//   - ErrorBackoff: 5s
//   - VisibilityHeartbeat: half of VisibilityTimeout
func NewWorker(ctx context.Context, sqsClient SQSClient, queueName string, handler Handler, config *WorkerConfig) (*Worker, error) {
	w := &Worker{
		sqsClient:           sqsClient,
		queueName:           queueName,
		maxNumberOfMessages: 10,
		waitTimeSeconds:     20,
		poolSize:            1,
		errorBackoff:        5 * time.Second,
		handler:             handler,
	}

	if config != nil {
		if config.MaxNumberOfMessages != 0 {
			w.maxNumberOfMessages = config.MaxNumberOfMessages
		}
		if config.WaitTimeSeconds != 0 {
			w.waitTimeSeconds = config.WaitTimeSeconds
		}
		if config.PoolSize != 0 {
			w.poolSize = config.PoolSize
		}
		if config.ErrorBackoff != 0 {
			w.errorBackoff = config.ErrorBackoff
		}
		w.visibilityTimeout = config.VisibilityTimeout
		w.visibilityHeartbeat = config.VisibilityHeartbeat
	}
	if w.visibilityHeartbeat == 0 {
		w.visibilityHeartbeat = w.visibilityTimeout / 2
	}

	if w.maxNumberOfMessages < 1 || w.maxNumberOfMessages > 10 {
		return nil, errors.New("maxNumberOfMessages must be between 1 and 10")
	}
	if w.waitTimeSeconds < 1 || w.waitTimeSeconds > 20 {
		return nil, errors.New("waitTimeSeconds must be between 1 and 20")
	}
	if w.poolSize < 1 {
		return nil, errors.New("poolSize must be greater than 0")
	}
	if w.visibilityTimeout != 0 && (w.visibilityTimeout < time.Second || w.visibilityTimeout > 12*time.Hour) {
		return nil, errors.New("visibilityTimeout must be between 1s and 12h")
	}
	if w.visibilityTimeout != 0 && (w.visibilityHeartbeat <= 0 || w.visibilityHeartbeat >= w.visibilityTimeout) {
		return nil, errors.New("visibilityHeartbeat must be shorter than visibilityTimeout")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	queueURL, err := getQueueURL(ctx, sqsClient, queueName)
	if err != nil {
		return nil, err
	}
	w.queueURL = queueURL
	return w, nil
}

// Start spawns PoolSize pollers and blocks until ctx is canceled and in-flight messages finish
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < w.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.pollMessages(ctx)
		}()
	}

	wg.Wait()
}

func (w *Worker) pollMessages(ctx context.Context) {
	for ctx.Err() == nil {
		output, err := w.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(w.queueURL),
			MaxNumberOfMessages:   w.maxNumberOfMessages,
			WaitTimeSeconds:       w.waitTimeSeconds,
			MessageAttributeNames: []string{"All"},
			VisibilityTimeout:     w.visibilitySeconds(),
		})
		w.recordPoll(err)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorw("failed to receive messages", "queue", w.queueName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.errorBackoff):
			}
			continue
		}

		for _, msg := range output.Messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg types.Message) {
	messageID := aws.ToString(msg.MessageId)

	stop := w.keepInvisible(ctx, msg)
	err := w.handler.HandleMessage(ctx, msg)
	stop()
	if err != nil {
		w.failed.Add(1)
		log.Errorw("error processing message", "queue", w.queueName, "messageId", messageID, "error", err)
		return
	}

	_, err = w.sqsClient.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Errorw("failed to delete message", "queue", w.queueName, "messageId", messageID, "error", err)
		return
	}
	w.processed.Add(1)
	log.Debugw("message processed", "queue", w.queueName, "messageId", messageID)
}

func (w *Worker) visibilitySeconds() int32 {
	return int32(w.visibilityTimeout / time.Second)
}

// keepInvisible extends the message visibility until the returned stop func is called
func (w *Worker) keepInvisible(ctx context.Context, msg types.Message) func() {
	if w.visibilityTimeout == 0 {
		return func() {}
	}

	heartbeatCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.visibilityHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-heartbeatCtx.Done():
				return
			case <-ticker.C:
				_, err := w.sqsClient.ChangeMessageVisibility(heartbeatCtx, &sqs.ChangeMessageVisibilityInput{
					QueueUrl:          aws.String(w.queueURL),
					ReceiptHandle:     msg.ReceiptHandle,
					VisibilityTimeout: w.visibilitySeconds(),
				})
				if err != nil && heartbeatCtx.Err() == nil {
					log.Warnw("failed to extend message visibility", "queue", w.queueName, "messageId", aws.ToString(msg.MessageId), "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (w *Worker) recordPoll(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastPoll = time.Now()
	w.lastError = err
}

// HealthCheck is DOWN when the last ReceiveMessage call failed
func (w *Worker) HealthCheck() WorkerHealth {
	w.mu.RLock()
	lastPoll, lastError := w.lastPoll, w.lastError
	w.mu.RUnlock()

	health := WorkerHealth{
		Status: StatusUp,
		Details: map[string]string{
			"queue":     w.queueName,
			"pool_size": strconv.Itoa(w.poolSize),
			"processed": strconv.FormatInt(w.processed.Load(), 10),
			"failed":    strconv.FormatInt(w.failed.Load(), 10),
		},
	}
	if !lastPoll.IsZero() {
		health.Details["last_poll"] = lastPoll.UTC().Format(time.RFC3339)
	}
	if lastError != nil {
		health.Status = StatusDown
		health.Details["error"] = lastError.Error()
	}
	return health
}
