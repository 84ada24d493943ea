package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/card-offer-notifier/internal/domain"
)

// batchGetLimit is the DynamoDB cap on keys per BatchGetItem request.
const batchGetLimit = 100

// NotificationRepo provides typed DynamoDB operations for the canonical
// notifications table. Rows are append-only; there is no update path.
type NotificationRepo struct {
	client    API
	tableName string
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// Insert writes a new canonical notification. It refuses to overwrite an
// existing id.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	defer observe("put", r.tableName, time.Now())
	n.ProductTypeKey = domain.ProductTypeKey(n.CardIssuer, n.CardName, n.NotificationType)
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
		return fmt.Errorf("notification %s exists: %w", n.NotificationID, domain.ErrConflict)
	}
	return err
}

// QueryRecent returns at most limit notifications for bank, cardName and
// type, newest first.
func (r *NotificationRepo) QueryRecent(ctx context.Context, bank, cardName string, t domain.OfferType, limit int) ([]domain.Notification, error) {
	defer observe("query_recent", r.tableName, time.Now())
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexProductTypeKey),
		KeyConditionExpression: aws.String("product_type_key = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: domain.ProductTypeKey(bank, cardName, t)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query recent notifications: %w", err)
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// BatchGet loads notifications by id. Missing ids are absent from the result.
func (r *NotificationRepo) BatchGet(ctx context.Context, ids []string) (map[string]domain.Notification, error) {
	defer observe("batch_get", r.tableName, time.Now())
	result := make(map[string]domain.Notification, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := min(start+batchGetLimit, len(ids))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, strKey(fieldNotificationID, id))
		}
		request := map[string]types.KeysAndAttributes{r.tableName: {Keys: keys}}
		// UnprocessedKeys are retried a bounded number of times.
		for attempt := 0; len(request) > 0 && attempt < 5; attempt++ {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("batch get notifications: %w", err)
			}
			var page []domain.Notification
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &page); err != nil {
				return nil, err
			}
			for _, n := range page {
				result[n.NotificationID] = n
			}
			request = out.UnprocessedKeys
		}
		if len(request) > 0 {
			return nil, fmt.Errorf("batch get notifications: unprocessed keys remain")
		}
	}
	return result, nil
}
