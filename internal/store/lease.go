package store

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ajitpratap0/logexport/pkg/errors"
)

// LeaseTable takes per-log-group leases with a conditional write, so two
// overlapping invocations cannot both submit an export for the same group.
type LeaseTable struct {
	client DynamoDBAPI
	name   string
}

var _ Leaser = (*LeaseTable)(nil)

// NewLeaseTable returns a leaser over the named table
func NewLeaseTable(client DynamoDBAPI, name string) *LeaseTable {
	return &LeaseTable{client: client, name: name}
}

// Acquire writes lease. The write succeeds when the log group has no lease,
// the existing lease's window ends at or before the new window starts, or the
// same owner already holds it.
func (l *LeaseTable) Acquire(ctx context.Context, lease Lease) error {
	item, err := attributevalue.MarshalMap(lease)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode lease")
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.name),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(logGroupName) OR windowEnd <= :start OR #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":start": &types.AttributeValueMemberN{Value: strconv.FormatInt(lease.WindowStart, 10)},
			":owner": &types.AttributeValueMemberS{Value: lease.Owner},
		},
	})
	if err == nil {
		return nil
	}

	var held *types.ConditionalCheckFailedException
	if stderrors.As(err, &held) {
		return ErrLeaseHeld
	}
	return errors.Wrap(err, errors.Classify(err), "failed to acquire lease").
		WithDetail("log_group", lease.LogGroupName)
}

// Release deletes owner's lease on logGroupName. A lease taken over by
// another owner in the meantime is left alone.
func (l *LeaseTable) Release(ctx context.Context, logGroupName, owner string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"logGroupName": logGroupName})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode lease key")
	}

	_, err = l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(l.name),
		Key:                 key,
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err == nil {
		return nil
	}

	var gone *types.ConditionalCheckFailedException
	if stderrors.As(err, &gone) {
		return nil
	}
	return errors.Wrap(err, errors.Classify(err), "failed to release lease").
		WithDetail("log_group", logGroupName)
}
