package sqs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

type fakeQueue struct {
	attributes map[string]string
	messages   []types.Message
	inFlight   map[string]types.Message
}

// fakeBackend is an in-memory queue store. Unimplemented API methods
// panic through the embedded nil interface.
type fakeBackend struct {
	API
	queues map[string]*fakeQueue
	nextID int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{queues: map[string]*fakeQueue{}}
}

func (f *fakeBackend) addQueue(url string, attrs map[string]string) *fakeQueue {
	q := &fakeQueue{attributes: attrs, inFlight: map[string]types.Message{}}
	if q.attributes == nil {
		q.attributes = map[string]string{}
	}
	f.queues[url] = q
	return q
}

func queueDoesNotExist() error {
	return &smithy.GenericAPIError{
		Code:    "AWS.SimpleQueueService.NonExistentQueue",
		Message: "The specified queue does not exist.",
	}
}

func (f *fakeBackend) ListQueues(_ context.Context, params *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	var urls []string
	for url := range f.queues {
		name := url[strings.LastIndex(url, "/")+1:]
		if params.QueueNamePrefix != nil && !strings.HasPrefix(name, *params.QueueNamePrefix) {
			continue
		}
		urls = append(urls, url)
	}
	return &sqs.ListQueuesOutput{QueueUrls: urls}, nil
}

func (f *fakeBackend) GetQueueUrl(_ context.Context, params *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	for url := range f.queues {
		if strings.HasSuffix(url, "/"+aws.ToString(params.QueueName)) {
			return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(url)}, nil
		}
	}
	return nil, queueDoesNotExist()
}

func (f *fakeBackend) GetQueueAttributes(_ context.Context, params *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	q, ok := f.queues[aws.ToString(params.QueueUrl)]
	if !ok {
		return nil, queueDoesNotExist()
	}
	attrs := map[string]string{
		string(types.QueueAttributeNameApproximateNumberOfMessages):           strconv.Itoa(len(q.messages)),
		string(types.QueueAttributeNameApproximateNumberOfMessagesNotVisible): strconv.Itoa(len(q.inFlight)),
		string(types.QueueAttributeNameApproximateNumberOfMessagesDelayed):    "0",
	}
	for k, v := range q.attributes {
		attrs[k] = v
	}
	return &sqs.GetQueueAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeBackend) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q, ok := f.queues[aws.ToString(params.QueueUrl)]
	if !ok {
		return nil, queueDoesNotExist()
	}
	n := int(params.MaxNumberOfMessages)
	if n > len(q.messages) {
		n = len(q.messages)
	}
	received := q.messages[:n]
	q.messages = q.messages[n:]
	for _, m := range received {
		q.inFlight[aws.ToString(m.ReceiptHandle)] = m
	}
	return &sqs.ReceiveMessageOutput{Messages: received}, nil
}

func (f *fakeBackend) CreateQueue(_ context.Context, params *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	url := "https://sqs.us-east-1.amazonaws.com/123456789012/" + aws.ToString(params.QueueName)
	f.addQueue(url, params.Attributes)
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(url)}, nil
}

func (f *fakeBackend) DeleteQueue(_ context.Context, params *sqs.DeleteQueueInput, _ ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	url := aws.ToString(params.QueueUrl)
	if _, ok := f.queues[url]; !ok {
		return nil, queueDoesNotExist()
	}
	delete(f.queues, url)
	return &sqs.DeleteQueueOutput{}, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q, ok := f.queues[aws.ToString(params.QueueUrl)]
	if !ok {
		return nil, queueDoesNotExist()
	}
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	q.messages = append(q.messages, types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          params.MessageBody,
	})
	return &sqs.SendMessageOutput{MessageId: aws.String(id)}, nil
}

func (f *fakeBackend) SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	out := &sqs.SendMessageBatchOutput{}
	for _, e := range params.Entries {
		if aws.ToString(e.MessageBody) == "" {
			out.Failed = append(out.Failed, types.BatchResultErrorEntry{
				Id:   e.Id,
				Code: aws.String("EmptyValue"),
			})
			continue
		}
		if _, err := f.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    params.QueueUrl,
			MessageBody: e.MessageBody,
		}); err != nil {
			return nil, err
		}
		out.Successful = append(out.Successful, types.SendMessageBatchResultEntry{Id: e.Id})
	}
	return out, nil
}

func (f *fakeBackend) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q, ok := f.queues[aws.ToString(params.QueueUrl)]
	if !ok {
		return nil, queueDoesNotExist()
	}
	delete(q.inFlight, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeBackend) PurgeQueue(_ context.Context, params *sqs.PurgeQueueInput, _ ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error) {
	q, ok := f.queues[aws.ToString(params.QueueUrl)]
	if !ok {
		return nil, queueDoesNotExist()
	}
	q.messages = nil
	return &sqs.PurgeQueueOutput{}, nil
}

func TestSendReceiveDeleteRoundtrip(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	reader := NewReader(backend)
	ctx := context.Background()

	url, err := writer.CreateQueue(ctx, "orders", nil)
	require.NoError(t, err)
	require.Contains(t, url, "/orders")

	sent, err := writer.SendMessage(ctx, url, `{"order":42}`, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, sent.MessageID)

	messages, err := reader.ReceiveMessages(ctx, url, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, `{"order":42}`, messages[0].Body)
	assert.Equal(t, sent.MessageID, messages[0].MessageID)

	counts, err := reader.MessageCounts(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Visible)
	assert.Equal(t, 1, counts.Invisible)
	assert.Equal(t, 1, counts.Total)

	require.NoError(t, writer.DeleteMessage(ctx, url, messages[0].ReceiptHandle))

	counts, err = reader.MessageCounts(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)
}

func TestMessageCountsSumsAttributes(t *testing.T) {
	backend := newFakeBackend()
	url := "https://sqs.us-east-1.amazonaws.com/123456789012/jobs"
	q := backend.addQueue(url, nil)
	q.messages = []types.Message{
		{MessageId: aws.String("a")},
		{MessageId: aws.String("b")},
		{MessageId: aws.String("c")},
	}

	counts, err := NewReader(backend).MessageCounts(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Visible)
	assert.Equal(t, 3, counts.Total)
}

func TestListQueuesPrefix(t *testing.T) {
	backend := newFakeBackend()
	backend.addQueue("https://sqs.us-east-1.amazonaws.com/123456789012/prod-orders", nil)
	backend.addQueue("https://sqs.us-east-1.amazonaws.com/123456789012/prod-events", nil)
	backend.addQueue("https://sqs.us-east-1.amazonaws.com/123456789012/dev-orders", nil)

	urls, err := NewReader(backend).ListQueues(context.Background(), "prod-")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestGetQueueURLMissing(t *testing.T) {
	backend := newFakeBackend()

	_, err := NewReader(backend).GetQueueURL(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestSendMessageBatchPartialFailure(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	ctx := context.Background()

	url, err := writer.CreateQueue(ctx, "bulk", nil)
	require.NoError(t, err)

	result, err := writer.SendMessageBatch(ctx, url, []BatchEntry{
		{ID: "1", Body: "first"},
		{ID: "2", Body: ""},
		{ID: "3", Body: "third"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, result.Successful)
	assert.Equal(t, []string{"2"}, result.Failed)
}

func TestPurgeQueue(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	ctx := context.Background()

	url, err := writer.CreateQueue(ctx, "scratch", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := writer.SendMessage(ctx, url, "m", 0)
		require.NoError(t, err)
	}

	require.NoError(t, writer.PurgeQueue(ctx, url))

	counts, err := NewReader(backend).MessageCounts(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)
}
