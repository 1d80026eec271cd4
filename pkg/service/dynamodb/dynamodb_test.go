package dynamodb

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

// fakeBackend stores items keyed by the stringified "id" attribute.
// Unimplemented API methods panic through the embedded nil interface.
type fakeBackend struct {
	API
	items      map[string]map[string]types.AttributeValue
	batchCalls []int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{items: map[string]map[string]types.AttributeValue{}}
}

func itemID(attrs map[string]types.AttributeValue) string {
	if v, ok := attrs["id"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func tableDoesNotExist(name string) error {
	return &smithy.GenericAPIError{
		Code:    "ResourceNotFoundException",
		Message: fmt.Sprintf("Requested resource not found: Table: %s not found", name),
	}
}

func (f *fakeBackend) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	item, ok := f.items[itemID(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeBackend) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[itemID(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, itemID(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeBackend) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	return out, nil
}

func (f *fakeBackend) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return nil, tableDoesNotExist(aws.ToString(params.TableName))
}

func (f *fakeBackend) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for _, requests := range params.RequestItems {
		f.batchCalls = append(f.batchCalls, len(requests))
		for _, req := range requests {
			if req.PutRequest != nil {
				f.items[itemID(req.PutRequest.Item)] = req.PutRequest.Item
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func TestPutGetDeleteItemRoundtrip(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	reader := NewReader(backend)
	ctx := context.Background()

	err := writer.PutItem(ctx, "orders", Item{
		"id":       "order-1",
		"quantity": 3,
		"notes":    "rush",
	})
	require.NoError(t, err)

	item, err := reader.GetItem(ctx, "orders", Item{"id": "order-1"})
	require.NoError(t, err)
	assert.Equal(t, "order-1", item["id"])
	assert.Equal(t, "rush", item["notes"])
	// Numbers decode as float64 through the generic map path.
	assert.EqualValues(t, 3, item["quantity"])

	require.NoError(t, writer.DeleteItem(ctx, "orders", Item{"id": "order-1"}))

	_, err = reader.GetItem(ctx, "orders", Item{"id": "order-1"})
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestGetItemMissingIsNotFound(t *testing.T) {
	backend := newFakeBackend()

	_, err := NewReader(backend).GetItem(context.Background(), "orders", Item{"id": "ghost"})
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "orders")
}

func TestDescribeTableMissingIsNotFound(t *testing.T) {
	backend := newFakeBackend()

	_, err := NewReader(backend).DescribeTable(context.Background(), "no-such-table")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestScanDecodesAllItems(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := writer.PutItem(ctx, "orders", Item{"id": fmt.Sprintf("order-%d", i)})
		require.NoError(t, err)
	}

	result, err := NewReader(backend).Scan(ctx, "orders", 0, "", nil)
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
	assert.EqualValues(t, 3, result.Count)
}

func TestBatchWriteItemsChunks(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)

	items := make([]Item, 60)
	for i := range items {
		items[i] = Item{"id": fmt.Sprintf("item-%d", i)}
	}

	unprocessed, err := writer.BatchWriteItems(context.Background(), "orders", items)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)
	assert.Equal(t, []int{25, 25, 10}, backend.batchCalls)
	assert.Len(t, backend.items, 60)
}
