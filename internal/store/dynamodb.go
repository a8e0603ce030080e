package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var (
	_ DynamoDBAPI = (*dynamodb.Client)(nil)
	_ Repository  = (*Table)(nil)
	_ Writer      = (*Table)(nil)
)

// Table is the DynamoDB-backed configuration store.
type Table struct {
	client DynamoDBAPI
	name   string
}

// NewTable returns a store over the named table
func NewTable(client DynamoDBAPI, name string) *Table {
	return &Table{client: client, name: name}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// ListEntries scans the whole table, following every page. No cursor is kept
// between calls.
func (t *Table) ListEntries(ctx context.Context) ([]Entry, error) {
	paginator := dynamodb.NewScanPaginator(t.client, &dynamodb.ScanInput{
		TableName:      aws.String(t.name),
		ConsistentRead: aws.Bool(true),
	})

	var entries []Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.Classify(err), "failed to scan configuration table").
				WithDetail("table", t.name)
		}

		for _, item := range page.Items {
			entry, ok := t.decode(ctx, item)
			if ok {
				entries = append(entries, entry)
			}
		}
	}

	return entries, nil
}

// decode unmarshals one item. An item with mistyped attributes still yields
// an entry, marked Invalid, as long as its log group name can be read.
func (t *Table) decode(ctx context.Context, item map[string]types.AttributeValue) (Entry, bool) {
	var entry Entry
	if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
		name, _ := item["logGroupName"].(*types.AttributeValueMemberS)
		if name == nil || name.Value == "" {
			logger.WithContext(ctx).Warn("skipping undecodable configuration entry",
				zap.String("table", t.name), zap.Error(err))
			return Entry{}, false
		}
		return Entry{LogGroupName: name.Value, Invalid: err.Error()}, true
	}

	if entry.LogGroupName == "" {
		logger.WithContext(ctx).Warn("skipping configuration entry without log group name",
			zap.String("table", t.name))
		return Entry{}, false
	}
	return entry, true
}

// PutEntry creates or replaces the entry for its log group
func (t *Table) PutEntry(ctx context.Context, entry Entry) error {
	if entry.LogGroupName == "" {
		return errors.New(errors.ErrorTypeValidation, "log group name is required")
	}
	if entry.Bucket == "" {
		return errors.New(errors.ErrorTypeValidation, "bucket name is required")
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "failed to encode configuration entry")
	}

	if _, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	}); err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to write configuration entry").
			WithDetail("log_group", entry.LogGroupName)
	}
	return nil
}

// DeleteEntry removes the entry for logGroupName; deleting a missing entry
// is not an error.
func (t *Table) DeleteEntry(ctx context.Context, logGroupName string) error {
	if _, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key: map[string]types.AttributeValue{
			"logGroupName": &types.AttributeValueMemberS{Value: logGroupName},
		},
	}); err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to delete configuration entry").
			WithDetail("log_group", logGroupName)
	}
	return nil
}
