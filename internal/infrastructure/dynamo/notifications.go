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

const (
	indexUserCreated = "user_id-created_at-index"
	indexEntity      = "entity_id-index"

	notificationCounter = "notifications"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
	counters  *CounterRepo
}

func NewNotificationRepo(client *dynamodb.Client, tableName string, counters *CounterRepo) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, counters: counters}
}

// Insert assigns the next notification id and writes the item. The write is
// conditional so a counter reset can never overwrite an existing row.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	id, err := r.counters.Next(ctx, notificationCounter)
	if err != nil {
		return err
	}
	n.NotificationID = id
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(notification_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %d already exists: %w", id, domain.ErrConflict)
	}
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}

// ListByUser queries the user_id-created_at GSI, oldest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": numValue(userID),
		},
	})
}

func (r *NotificationRepo) ListAll(ctx context.Context) ([]domain.Notification, error) {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return unmarshalNotifications(items)
}

func (r *NotificationRepo) ListByCorrelatedEntity(ctx context.Context, typeID, entityID int64) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexEntity),
		KeyConditionExpression: aws.String("entity_id = :eid"),
		FilterExpression:       aws.String("notification_type_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": numValue(entityID),
			":tid": numValue(typeID),
		},
	})
}

func (r *NotificationRepo) UpdateState(ctx context.Context, notificationID, stateID int64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{"notification_state_id": stateID})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
	}
	return err
}

// DeleteMany removes the ids with TransactWriteItems. Each call holds at most
// 100 actions, so a batch larger than that is only atomic per chunk.
func (r *NotificationRepo) DeleteMany(ctx context.Context, notificationIDs []int64) (int, error) {
	deleted := 0
	for _, ids := range chunk(notificationIDs, maxTransactItems) {
		items := make([]types.TransactWriteItem, len(ids))
		for i, id := range ids {
			items[i] = types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       numKey("notification_id", id),
			}}
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return deleted, fmt.Errorf("delete notifications: %w", err)
		}
		deleted += len(ids)
	}
	return deleted, nil
}

func (r *NotificationRepo) query(ctx context.Context, in *dynamodb.QueryInput) ([]domain.Notification, error) {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return unmarshalNotifications(items)
}

func unmarshalNotifications(items []map[string]types.AttributeValue) ([]domain.Notification, error) {
	notifications := make([]domain.Notification, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &notifications); err != nil {
		return nil, fmt.Errorf("unmarshal notifications: %w", err)
	}
	return notifications, nil
}
