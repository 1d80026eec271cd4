package sqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// SendResult reports one delivered message.
type SendResult struct {
	MessageID      string `json:"message_id"`
	SequenceNumber string `json:"sequence_number,omitempty"`
}

// BatchEntry is one message in a batch send.
type BatchEntry struct {
	ID   string
	Body string
}

// BatchSendResult reports a batch send, split into delivered and failed
// entries.
type BatchSendResult struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
}

// Writer creates and mutates queues and sends messages.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given SQS API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateQueue creates a queue with the given attributes and returns its
// URL.
func (w *Writer) CreateQueue(ctx context.Context, name string, attributes map[string]string) (string, error) {
	input := &sqs.CreateQueueInput{
		QueueName: aws.String(name),
	}
	if len(attributes) > 0 {
		input.Attributes = attributes
	}

	out, err := w.api.CreateQueue(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "CreateQueue", name, err)
	}

	w.log.Info().Str("queue", name).Msg("created queue")
	return aws.ToString(out.QueueUrl), nil
}

// DeleteQueue removes a queue and all of its messages.
func (w *Writer) DeleteQueue(ctx context.Context, queueURL string) error {
	if _, err := w.api.DeleteQueue(ctx, &sqs.DeleteQueueInput{
		QueueUrl: aws.String(queueURL),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteQueue", queueURL, err)
	}

	w.log.Info().Str("queue", queueURL).Msg("deleted queue")
	return nil
}

// SendMessage delivers one message, optionally after delaySeconds.
func (w *Writer) SendMessage(ctx context.Context, queueURL, body string, delaySeconds int32) (*SendResult, error) {
	out, err := w.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(queueURL),
		MessageBody:  aws.String(body),
		DelaySeconds: delaySeconds,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "SendMessage", queueURL, err)
	}

	return &SendResult{
		MessageID:      aws.ToString(out.MessageId),
		SequenceNumber: aws.ToString(out.SequenceNumber),
	}, nil
}

// SendMessageBatch delivers up to ten messages in one call. Per-entry
// failures are reported in the result, not as an error.
func (w *Writer) SendMessageBatch(ctx context.Context, queueURL string, entries []BatchEntry) (*BatchSendResult, error) {
	batch := make([]types.SendMessageBatchRequestEntry, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, types.SendMessageBatchRequestEntry{
			Id:          aws.String(e.ID),
			MessageBody: aws.String(e.Body),
		})
	}

	out, err := w.api.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(queueURL),
		Entries:  batch,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "SendMessageBatch", queueURL, err)
	}

	result := &BatchSendResult{}
	for _, s := range out.Successful {
		result.Successful = append(result.Successful, aws.ToString(s.Id))
	}
	for _, f := range out.Failed {
		result.Failed = append(result.Failed, aws.ToString(f.Id))
	}

	w.log.Info().
		Str("queue", queueURL).
		Int("sent", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Msg("sent message batch")
	return result, nil
}

// DeleteMessage acknowledges a received message by its receipt handle.
func (w *Writer) DeleteMessage(ctx context.Context, queueURL, receiptHandle string) error {
	if _, err := w.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteMessage", queueURL, err)
	}
	return nil
}

// ChangeMessageVisibility adjusts how long a received message stays
// hidden.
func (w *Writer) ChangeMessageVisibility(ctx context.Context, queueURL, receiptHandle string, timeoutSeconds int32) error {
	if _, err := w.api.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(queueURL),
		ReceiptHandle:     aws.String(receiptHandle),
		VisibilityTimeout: timeoutSeconds,
	}); err != nil {
		return awserr.Classify(serviceName, "ChangeMessageVisibility", queueURL, err)
	}
	return nil
}

// PurgeQueue deletes every message in the queue.
func (w *Writer) PurgeQueue(ctx context.Context, queueURL string) error {
	if _, err := w.api.PurgeQueue(ctx, &sqs.PurgeQueueInput{
		QueueUrl: aws.String(queueURL),
	}); err != nil {
		return awserr.Classify(serviceName, "PurgeQueue", queueURL, err)
	}

	w.log.Info().Str("queue", queueURL).Msg("purged queue")
	return nil
}

// TagQueue adds tags to a queue.
func (w *Writer) TagQueue(ctx context.Context, queueURL string, tags map[string]string) error {
	if _, err := w.api.TagQueue(ctx, &sqs.TagQueueInput{
		QueueUrl: aws.String(queueURL),
		Tags:     tags,
	}); err != nil {
		return awserr.Classify(serviceName, "TagQueue", queueURL, err)
	}
	return nil
}
