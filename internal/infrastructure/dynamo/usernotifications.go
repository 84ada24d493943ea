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

// UserNotificationRepo manages per-user links to canonical notifications.
// PK: user_id, SK: notification_id.
type UserNotificationRepo struct {
	client    API
	tableName string
}

func NewUserNotificationRepo(client API, tableName string) *UserNotificationRepo {
	return &UserNotificationRepo{client: client, tableName: tableName}
}

func (r *UserNotificationRepo) Exists(ctx context.Context, userID, notificationID string) (bool, error) {
	defer observe("get", r.tableName, time.Now())
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  compositeKey(fieldUserID, userID, fieldNotificationID, notificationID),
		ProjectionExpression: aws.String(fieldUserID),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// Insert writes the link only if (user_id, notification_id) is absent.
// It reports false without error when the row already exists.
func (r *UserNotificationRepo) Insert(ctx context.Context, un *domain.UserNotification) (bool, error) {
	defer observe("put", r.tableName, time.Now())
	item, err := attributevalue.MarshalMap(un)
	if err != nil {
		return false, fmt.Errorf("marshal user notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(notification_id)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListForUser returns one page of a user's links, newest notification first.
// cursor is a base64-encoded notification_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *UserNotificationRepo) ListForUser(ctx context.Context, userID string, limit int, cursor string, unreadOnly bool) ([]domain.UserNotification, string, error) {
	defer observe("query_user", r.tableName, time.Now())
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if unreadOnly {
		input.FilterExpression = aws.String("#rd = :f")
		input.ExpressionAttributeNames = map[string]string{"#rd": fieldRead}
		input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	if cursor != "" {
		notificationID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = compositeKey(fieldUserID, userID, fieldNotificationID, notificationID)
	}

	var links []domain.UserNotification
	more := true
	// Limit applies before the filter, so keep reading until the page is full.
	for len(links) < limit && more {
		input.Limit = aws.Int32(int32(limit - len(links)))
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, "", fmt.Errorf("query user notifications: %w", err)
		}
		var page []domain.UserNotification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, "", err
		}
		links = append(links, page...)
		more = len(out.LastEvaluatedKey) > 0
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	nextCursor := ""
	if more && len(links) > 0 {
		nextCursor = encodeCursor(links[len(links)-1].NotificationID)
	}
	return links, nextCursor, nil
}

// CountUnread counts the user's unread links.
func (r *UserNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	defer observe("count_unread", r.tableName, time.Now())
	p := dynamodb.NewQueryPaginator(r.client, r.unreadQuery(userID, types.SelectCount))
	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count unread: %w", err)
		}
		total += int(out.Count)
	}
	return total, nil
}

// ListUnreadIDs returns the notification ids of every unread link for userID.
func (r *UserNotificationRepo) ListUnreadIDs(ctx context.Context, userID string) ([]string, error) {
	defer observe("list_unread", r.tableName, time.Now())
	input := r.unreadQuery(userID, types.SelectSpecificAttributes)
	input.ProjectionExpression = aws.String(fieldNotificationID)
	p := dynamodb.NewQueryPaginator(r.client, input)
	var ids []string
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list unread: %w", err)
		}
		for _, item := range out.Items {
			if nid, ok := item[fieldNotificationID].(*types.AttributeValueMemberS); ok {
				ids = append(ids, nid.Value)
			}
		}
	}
	return ids, nil
}

// MarkRead flips one link to read. It returns false without error when the
// link does not exist or is already read, so repeated calls are no-ops.
func (r *UserNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string, at time.Time) (bool, error) {
	defer observe("mark_read", r.tableName, time.Now())
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRead: true, fieldReadAt: at.UTC()})
	if err != nil {
		return false, err
	}
	ue.Names["#rd"] = fieldRead
	ue.Values[":unread"] = &types.AttributeValueMemberBOOL{Value: false}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldUserID, userID, fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id) AND #rd = :unread"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserNotificationRepo) unreadQuery(userID string, sel types.Select) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#rd = :f"),
		ExpressionAttributeNames: map[string]string{
			"#rd": fieldRead,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
		Select: sel,
	}
}
