package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// AttributeDef declares one key attribute when creating a table.
type AttributeDef struct {
	Name string
	Type string // S, N, or B
}

// CreateTableOptions carries the optional settings for CreateTable.
// Zero throughput selects on-demand billing.
type CreateTableOptions struct {
	ReadCapacity  int64
	WriteCapacity int64
	Tags          map[string]string
}

// Writer creates and mutates tables and items.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given DynamoDB API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateTable creates a table. keySchema lists the hash key first and
// an optional range key second; attributes must cover every key.
func (w *Writer) CreateTable(ctx context.Context, tableName string, keySchema []KeyPart, attributes []AttributeDef, opts CreateTableOptions) (*TableInfo, error) {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
	}
	for _, k := range keySchema {
		input.KeySchema = append(input.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(k.AttributeName),
			KeyType:       types.KeyType(k.KeyType),
		})
	}
	for _, a := range attributes {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(a.Name),
			AttributeType: types.ScalarAttributeType(a.Type),
		})
	}
	if opts.ReadCapacity > 0 && opts.WriteCapacity > 0 {
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(opts.ReadCapacity),
			WriteCapacityUnits: aws.Int64(opts.WriteCapacity),
		}
	} else {
		input.BillingMode = types.BillingModePayPerRequest
	}
	for k, v := range opts.Tags {
		input.Tags = append(input.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	out, err := w.api.CreateTable(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateTable", tableName, err)
	}

	w.log.Info().Str("table", tableName).Msg("created table")
	return &TableInfo{
		Name:   aws.ToString(out.TableDescription.TableName),
		ARN:    aws.ToString(out.TableDescription.TableArn),
		Status: string(out.TableDescription.TableStatus),
	}, nil
}

// DeleteTable removes a table and all of its items.
func (w *Writer) DeleteTable(ctx context.Context, tableName string) error {
	if _, err := w.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteTable", tableName, err)
	}

	w.log.Info().Str("table", tableName).Msg("deleted table")
	return nil
}

// PutItem writes one item, replacing any existing item with the same
// key.
func (w *Writer) PutItem(ctx context.Context, tableName string, item Item) error {
	attrs, err := encodeItem(item)
	if err != nil {
		return awserr.NewFailure(serviceName, "PutItem", tableName, err)
	}

	if _, err := w.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      attrs,
	}); err != nil {
		return awserr.Classify(serviceName, "PutItem", tableName, err)
	}
	return nil
}

// UpdateItem applies an update expression to one item and returns the
// item's new attributes. values binds the expression placeholders.
func (w *Writer) UpdateItem(ctx context.Context, tableName string, key Item, updateExpression string, values Item) (Item, error) {
	keyAttrs, err := encodeItem(key)
	if err != nil {
		return nil, awserr.NewFailure(serviceName, "UpdateItem", tableName, err)
	}
	valueAttrs, err := encodeItem(values)
	if err != nil {
		return nil, awserr.NewFailure(serviceName, "UpdateItem", tableName, err)
	}

	out, err := w.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       keyAttrs,
		UpdateExpression:          aws.String(updateExpression),
		ExpressionAttributeValues: valueAttrs,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "UpdateItem", tableName, err)
	}

	var updated Item
	if err := decodeInto(out.Attributes, &updated); err != nil {
		return nil, awserr.NewFailure(serviceName, "UpdateItem", tableName, err)
	}
	return updated, nil
}

// DeleteItem removes one item by its full key.
func (w *Writer) DeleteItem(ctx context.Context, tableName string, key Item) error {
	attrs, err := encodeItem(key)
	if err != nil {
		return awserr.NewFailure(serviceName, "DeleteItem", tableName, err)
	}

	if _, err := w.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       attrs,
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteItem", tableName, err)
	}
	return nil
}

// BatchWriteItems puts items into a table in chunks of twenty five, the
// batch-write request cap. Unprocessed items are retried once; anything
// still unprocessed is returned.
func (w *Writer) BatchWriteItems(ctx context.Context, tableName string, items []Item) ([]Item, error) {
	const chunkSize = 25

	var unprocessed []Item
	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			attrs, err := encodeItem(item)
			if err != nil {
				return nil, awserr.NewFailure(serviceName, "BatchWriteItems", tableName, err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: attrs},
			})
		}

		pending := map[string][]types.WriteRequest{tableName: requests}
		for attempt := 0; attempt < 2 && len(pending) > 0; attempt++ {
			out, err := w.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return nil, awserr.Classify(serviceName, "BatchWriteItems", tableName, err)
			}
			pending = out.UnprocessedItems
		}

		for _, req := range pending[tableName] {
			if req.PutRequest == nil {
				continue
			}
			var item Item
			if err := decodeInto(req.PutRequest.Item, &item); err != nil {
				return nil, awserr.NewFailure(serviceName, "BatchWriteItems", tableName, err)
			}
			unprocessed = append(unprocessed, item)
		}
	}

	w.log.Info().
		Str("table", tableName).
		Int("items", len(items)).
		Int("unprocessed", len(unprocessed)).
		Msg("batch wrote items")
	return unprocessed, nil
}
