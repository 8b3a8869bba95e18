package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu          sync.Mutex
	urlCalls    int
	sent        []*sqs.SendMessageInput
	deleted     []string
	pending     []types.Message
	receiveErrs int
	visibility  []int32
	extended    []string
}

func (f *fakeSQS) GetQueueUrl(_ context.Context, in *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urlCalls++
	if aws.ToString(in.QueueName) == "missing" {
		return nil, errors.New("queue does not exist")
	}
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs.local/" + aws.ToString(in.QueueName))}, nil
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.visibility = append(f.visibility, in.VisibilityTimeout)
	if f.receiveErrs > 0 {
		f.receiveErrs--
		f.mu.Unlock()
		return nil, errors.New("throttled")
	}
	msgs := f.pending
	f.pending = nil
	f.mu.Unlock()

	if len(msgs) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(_ context.Context, in *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extended = append(f.extended, aws.ToString(in.ReceiptHandle))
	f.visibility = append(f.visibility, in.VisibilityTimeout)
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) extendedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.extended...)
}

func (f *fakeSQS) visibilities() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int32(nil), f.visibility...)
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func TestSenderSendsJSONAndCachesQueueURL(t *testing.T) {
	fake := &fakeSQS{}
	sender := NewSender(fake)
	ctx := context.Background()

	body := map[string]any{"jobId": "j1", "regionIds": []string{"napa-valley"}}
	id, err := sender.SendMessage(ctx, "prediction-jobs", body, map[string]string{"userId": "u1"})
	require.NoError(t, err)
	_, err = sender.SendMessage(ctx, "prediction-jobs", body, nil)
	require.NoError(t, err)

	assert.Equal(t, "m-1", id)
	assert.Equal(t, 1, fake.urlCalls)
	require.Len(t, fake.sent, 2)
	assert.Equal(t, "https://sqs.local/prediction-jobs", aws.ToString(fake.sent[0].QueueUrl))
	assert.Equal(t, "u1", aws.ToString(fake.sent[0].MessageAttributes["userId"].StringValue))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.sent[0].MessageBody)), &decoded))
	assert.Equal(t, "j1", decoded["jobId"])
}

func TestSenderUnknownQueue(t *testing.T) {
	_, err := NewSender(&fakeSQS{}).SendMessage(context.Background(), "missing", "x", nil)
	assert.Error(t, err)
}

func TestNewWorkerValidatesConfig(t *testing.T) {
	handler := HandlerFunc(func(context.Context, types.Message) error { return nil })
	ctx := context.Background()

	_, err := NewWorker(ctx, &fakeSQS{}, "q", handler, &WorkerConfig{MaxNumberOfMessages: 11})
	assert.Error(t, err)
	_, err = NewWorker(ctx, &fakeSQS{}, "q", handler, &WorkerConfig{WaitTimeSeconds: 21})
	assert.Error(t, err)
	_, err = NewWorker(ctx, &fakeSQS{}, "q", handler, &WorkerConfig{VisibilityTimeout: 13 * time.Hour})
	assert.Error(t, err)
	_, err = NewWorker(ctx, &fakeSQS{}, "q", handler, &WorkerConfig{VisibilityTimeout: time.Minute, VisibilityHeartbeat: time.Minute})
	assert.Error(t, err)
	_, err = NewWorker(ctx, &fakeSQS{}, "q", nil, nil)
	assert.Error(t, err)
	_, err = NewWorker(ctx, &fakeSQS{}, "missing", handler, nil)
	assert.Error(t, err)
}

func TestWorkerDeletesOnlyHandledMessages(t *testing.T) {
	fake := &fakeSQS{
		receiveErrs: 1,
		pending: []types.Message{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("ok"), Body: aws.String(`{}`)},
			{MessageId: aws.String("2"), ReceiptHandle: aws.String("bad"), Body: aws.String(`{}`)},
		},
	}

	var handled sync.WaitGroup
	handled.Add(2)
	handler := HandlerFunc(func(_ context.Context, msg types.Message) error {
		defer handled.Done()
		if aws.ToString(msg.ReceiptHandle) == "bad" {
			return errors.New("poison")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := NewWorker(ctx, fake, "q", handler, &WorkerConfig{ErrorBackoff: time.Millisecond})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	handled.Wait()
	cancel()
	<-done

	assert.Equal(t, []string{"ok"}, fake.deletedHandles())
}

func TestWorkerHealthTracksCounters(t *testing.T) {
	fake := &fakeSQS{
		pending: []types.Message{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("ok"), Body: aws.String(`{}`)},
			{MessageId: aws.String("2"), ReceiptHandle: aws.String("bad"), Body: aws.String(`{}`)},
		},
	}

	var handled sync.WaitGroup
	handled.Add(2)
	handler := HandlerFunc(func(_ context.Context, msg types.Message) error {
		defer handled.Done()
		if aws.ToString(msg.ReceiptHandle) == "bad" {
			return errors.New("poison")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := NewWorker(ctx, fake, "prediction-jobs", handler, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUp, worker.HealthCheck().Status)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	handled.Wait()
	cancel()
	<-done

	health := worker.HealthCheck()
	assert.Equal(t, StatusUp, health.Status)
	assert.Equal(t, "1", health.Details["processed"])
	assert.Equal(t, "1", health.Details["failed"])
	assert.Equal(t, "prediction-jobs", health.Details["queue"])
}

func TestWorkerHealthDownAfterReceiveError(t *testing.T) {
	fake := &fakeSQS{receiveErrs: 1000}
	handler := HandlerFunc(func(context.Context, types.Message) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	worker, err := NewWorker(ctx, fake, "q", handler, &WorkerConfig{ErrorBackoff: time.Millisecond})
	require.NoError(t, err)
	worker.Start(ctx)

	health := worker.HealthCheck()
	assert.Equal(t, StatusDown, health.Status)
	assert.Equal(t, "throttled", health.Details["error"])
}

func TestWorkerExtendsVisibilityWhileHandling(t *testing.T) {
	fake := &fakeSQS{
		pending: []types.Message{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("slow"), Body: aws.String(`{}`)},
		},
	}

	handled := make(chan struct{})
	handler := HandlerFunc(func(ctx context.Context, _ types.Message) error {
		defer close(handled)
		select {
		case <-ctx.Done():
		case <-time.After(60 * time.Millisecond):
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := NewWorker(ctx, fake, "q", handler, &WorkerConfig{
		VisibilityTimeout:   2 * time.Second,
		VisibilityHeartbeat: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	<-handled
	cancel()
	<-done

	extended := fake.extendedHandles()
	require.NotEmpty(t, extended)
	for _, handle := range extended {
		assert.Equal(t, "slow", handle)
	}
	for _, seconds := range fake.visibilities() {
		assert.Equal(t, int32(2), seconds)
	}
	assert.Equal(t, []string{"slow"}, fake.deletedHandles())
}

func TestWorkerKeepsQueueVisibilityByDefault(t *testing.T) {
	fake := &fakeSQS{
		pending: []types.Message{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("ok"), Body: aws.String(`{}`)},
		},
	}

	handled := make(chan struct{})
	handler := HandlerFunc(func(context.Context, types.Message) error {
		close(handled)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := NewWorker(ctx, fake, "q", handler, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	<-handled
	cancel()
	<-done

	assert.Empty(t, fake.extendedHandles())
	assert.Equal(t, int32(0), fake.visibilities()[0])
}
