package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notification-dispatch/internal/domain"
)

const indexTypeName = "name-index"

// TypeRepo provides typed DynamoDB operations for the notification types table.
type TypeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTypeRepo(client *dynamodb.Client, tableName string) *TypeRepo {
	return &TypeRepo{client: client, tableName: tableName}
}

// Seed writes each type unless its id is already present.
func (r *TypeRepo) Seed(ctx context.Context, seed ...domain.NotificationType) error {
	for _, t := range seed {
		item, err := attributevalue.MarshalMap(t)
		if err != nil {
			return fmt.Errorf("marshal notification type: %w", err)
		}
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(notification_type_id)"),
		})
		if err != nil && !isConditionFailed(err) {
			return err
		}
	}
	return nil
}

func (r *TypeRepo) Get(ctx context.Context, typeID int64) (*domain.NotificationType, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("notification_type_id", typeID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification type %d: %w", typeID, domain.ErrNotFound)
	}
	var t domain.NotificationType
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TypeRepo) GetByName(ctx context.Context, name string) (*domain.NotificationType, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexTypeName),
		KeyConditionExpression: aws.String("#n = :name"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: name},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("notification type %q: %w", name, domain.ErrNotFound)
	}
	var t domain.NotificationType
	if err := attributevalue.UnmarshalMap(out.Items[0], &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TypeRepo) List(ctx context.Context) ([]domain.NotificationType, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	list := make([]domain.NotificationType, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &list); err != nil {
		return nil, err
	}
	return list, nil
}
