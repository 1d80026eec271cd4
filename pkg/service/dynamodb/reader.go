// Package dynamodb wraps the key-value store: table discovery, item
// reads with plain-Go decoding, and table and item writes.
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "dynamodb"

// Item is one table item decoded into plain Go values.
type Item map[string]any

// TableInfo summarizes one table.
type TableInfo struct {
	Name         string     `json:"table_name"`
	ARN          string     `json:"table_arn"`
	Status       string     `json:"status"`
	ItemCount    int64      `json:"item_count"`
	SizeBytes    int64      `json:"size_bytes"`
	KeySchema    []KeyPart  `json:"key_schema"`
	BillingMode  string     `json:"billing_mode,omitempty"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

// KeyPart is one element of a table key schema.
type KeyPart struct {
	AttributeName string `json:"attribute_name"`
	KeyType       string `json:"key_type"`
}

// QueryResult carries decoded items plus the scanned/returned counts.
type QueryResult struct {
	Items        []Item `json:"items"`
	Count        int32  `json:"count"`
	ScannedCount int32  `json:"scanned_count"`
}

// Reader reads tables and items.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given DynamoDB API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListTables returns all table names in the region.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	paginator := dynamodb.NewListTablesPaginator(r.api, &dynamodb.ListTablesInput{})

	var tables []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListTables", "", err)
		}
		tables = append(tables, page.TableNames...)
	}

	r.log.Debug().Int("count", len(tables)).Msg("listed tables")
	return tables, nil
}

// DescribeTable returns a summary of one table.
func (r *Reader) DescribeTable(ctx context.Context, tableName string) (*TableInfo, error) {
	out, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeTable", tableName, err)
	}

	t := out.Table
	info := &TableInfo{
		Name:         aws.ToString(t.TableName),
		ARN:          aws.ToString(t.TableArn),
		Status:       string(t.TableStatus),
		ItemCount:    aws.ToInt64(t.ItemCount),
		SizeBytes:    aws.ToInt64(t.TableSizeBytes),
		CreationDate: t.CreationDateTime,
	}
	for _, k := range t.KeySchema {
		info.KeySchema = append(info.KeySchema, KeyPart{
			AttributeName: aws.ToString(k.AttributeName),
			KeyType:       string(k.KeyType),
		})
	}
	if t.BillingModeSummary != nil {
		info.BillingMode = string(t.BillingModeSummary.BillingMode)
	}
	return info, nil
}

// Scan reads items from a table. limit caps the number of items
// returned; zero means all. filterExpression and values are optional.
func (r *Reader) Scan(ctx context.Context, tableName string, limit int32, filterExpression string, values Item) (*QueryResult, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(tableName)}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	if filterExpression != "" {
		input.FilterExpression = aws.String(filterExpression)
		attrs, err := encodeItem(values)
		if err != nil {
			return nil, awserr.NewFailure(serviceName, "Scan", tableName, err)
		}
		input.ExpressionAttributeValues = attrs
	}

	out, err := r.api.Scan(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "Scan", tableName, err)
	}
	return decodeResult(serviceName, "Scan", tableName, out.Items, out.Count, out.ScannedCount)
}

// Query reads items matching a key condition expression. values binds
// the expression placeholders.
func (r *Reader) Query(ctx context.Context, tableName, keyCondition string, values Item, limit int32) (*QueryResult, error) {
	attrs, err := encodeItem(values)
	if err != nil {
		return nil, awserr.NewFailure(serviceName, "Query", tableName, err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeValues: attrs,
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := r.api.Query(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "Query", tableName, err)
	}
	return decodeResult(serviceName, "Query", tableName, out.Items, out.Count, out.ScannedCount)
}

// GetItem reads one item by its full key. Returns NotFound when the
// item does not exist.
func (r *Reader) GetItem(ctx context.Context, tableName string, key Item) (Item, error) {
	attrs, err := encodeItem(key)
	if err != nil {
		return nil, awserr.NewFailure(serviceName, "GetItem", tableName, err)
	}

	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       attrs,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetItem", tableName, err)
	}
	if out.Item == nil {
		return nil, awserr.NewNotFound(serviceName, "GetItem", tableName)
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, awserr.NewFailure(serviceName, "GetItem", tableName, err)
	}
	return item, nil
}

func encodeItem(item Item) (map[string]types.AttributeValue, error) {
	if item == nil {
		return nil, nil
	}
	return attributevalue.MarshalMap(map[string]any(item))
}

func decodeInto(raw map[string]types.AttributeValue, item *Item) error {
	if raw == nil {
		return nil
	}
	return attributevalue.UnmarshalMap(raw, item)
}

func decodeResult(service, op, table string, raw []map[string]types.AttributeValue, count, scanned int32) (*QueryResult, error) {
	result := &QueryResult{Count: count, ScannedCount: scanned}
	for _, m := range raw {
		var item Item
		if err := decodeInto(m, &item); err != nil {
			return nil, awserr.NewFailure(service, op, table, err)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}
