// Package sqs wraps the managed queue service: queue discovery,
// attribute and message-count reads, message receipt and delivery, and
// queue lifecycle operations.
package sqs

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "sqs"

// Message is one received queue message.
type Message struct {
	MessageID     string            `json:"message_id"`
	ReceiptHandle string            `json:"receipt_handle"`
	Body          string            `json:"body"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// MessageCounts summarizes the approximate message counts of a queue.
type MessageCounts struct {
	Visible   int `json:"visible_messages"`
	Invisible int `json:"invisible_messages"`
	Delayed   int `json:"delayed_messages"`
	Total     int `json:"total_messages"`
}

// Reader reads queues and messages.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given SQS API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListQueues returns queue URLs, optionally filtered by name prefix.
func (r *Reader) ListQueues(ctx context.Context, namePrefix string) ([]string, error) {
	input := &sqs.ListQueuesInput{}
	if namePrefix != "" {
		input.QueueNamePrefix = aws.String(namePrefix)
	}

	paginator := sqs.NewListQueuesPaginator(r.api, input)

	var urls []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListQueues", namePrefix, err)
		}
		urls = append(urls, page.QueueUrls...)
	}

	r.log.Debug().Int("count", len(urls)).Msg("listed queues")
	return urls, nil
}

// GetQueueURL resolves a queue name to its URL.
func (r *Reader) GetQueueURL(ctx context.Context, queueName string) (string, error) {
	out, err := r.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		return "", awserr.Classify(serviceName, "GetQueueURL", queueName, err)
	}
	return aws.ToString(out.QueueUrl), nil
}

// GetQueueAttributes returns all attributes of a queue.
func (r *Reader) GetQueueAttributes(ctx context.Context, queueURL string) (map[string]string, error) {
	out, err := r.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameAll},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetQueueAttributes", queueURL, err)
	}
	return out.Attributes, nil
}

// MessageCounts returns the approximate visible, in-flight, and delayed
// message counts of a queue.
func (r *Reader) MessageCounts(ctx context.Context, queueURL string) (*MessageCounts, error) {
	out, err := r.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
			types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
			types.QueueAttributeNameApproximateNumberOfMessagesDelayed,
		},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "MessageCounts", queueURL, err)
	}

	counts := &MessageCounts{
		Visible:   atoi(out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]),
		Invisible: atoi(out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessagesNotVisible)]),
		Delayed:   atoi(out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessagesDelayed)]),
	}
	counts.Total = counts.Visible + counts.Invisible + counts.Delayed

	r.log.Debug().Str("queue", queueURL).Int("total", counts.Total).Msg("queue message counts")
	return counts, nil
}

// ReceiveMessages receives up to max messages, waiting up to waitSeconds
// for them. Received messages stay invisible until deleted or their
// visibility timeout lapses.
func (r *Reader) ReceiveMessages(ctx context.Context, queueURL string, max int32, waitSeconds int32) ([]Message, error) {
	out, err := r.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(queueURL),
		MaxNumberOfMessages:         max,
		WaitTimeSeconds:             waitSeconds,
		MessageAttributeNames:       []string{"All"},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ReceiveMessages", queueURL, err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			MessageID:     aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
			Attributes:    m.Attributes,
		})
	}

	r.log.Debug().Str("queue", queueURL).Int("count", len(messages)).Msg("received messages")
	return messages, nil
}

// ListDeadLetterSourceQueues returns the queues whose dead-letter queue is
// the given one.
func (r *Reader) ListDeadLetterSourceQueues(ctx context.Context, queueURL string) ([]string, error) {
	out, err := r.api.ListDeadLetterSourceQueues(ctx, &sqs.ListDeadLetterSourceQueuesInput{
		QueueUrl: aws.String(queueURL),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListDeadLetterSourceQueues", queueURL, err)
	}
	return out.QueueUrls, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
