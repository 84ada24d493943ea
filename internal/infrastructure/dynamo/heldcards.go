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

// HeldCardRepo reads the held_cards table. This service never writes to it.
type HeldCardRepo struct {
	client    API
	tableName string
}

func NewHeldCardRepo(client API, tableName string) *HeldCardRepo {
	return &HeldCardRepo{client: client, tableName: tableName}
}

// ListHeldCards scans every held-card row across all users.
func (r *HeldCardRepo) ListHeldCards(ctx context.Context) ([]domain.HeldCard, error) {
	defer observe("scan", r.tableName, time.Now())
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		ProjectionExpression: aws.String("user_card_id, user_id, bank, card_name, country"),
	})
	var cards []domain.HeldCard
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan held cards: %w", err)
		}
		var page []domain.HeldCard
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal held cards: %w", err)
		}
		cards = append(cards, page...)
	}
	return cards, nil
}

// ListHolders returns the distinct user ids holding bank + cardName, via the
// card_key-index GSI.
func (r *HeldCardRepo) ListHolders(ctx context.Context, bank, cardName string) ([]string, error) {
	defer observe("query_holders", r.tableName, time.Now())
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexCardKey),
		KeyConditionExpression: aws.String("card_key = :ck"),
		ProjectionExpression:   aws.String("user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ck": &types.AttributeValueMemberS{Value: domain.CardKey(bank, cardName)},
		},
	})
	seen := make(map[string]struct{})
	var userIDs []string
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query holders: %w", err)
		}
		for _, item := range out.Items {
			uid, ok := item[fieldUserID].(*types.AttributeValueMemberS)
			if !ok || uid.Value == "" {
				continue
			}
			if _, dup := seen[uid.Value]; dup {
				continue
			}
			seen[uid.Value] = struct{}{}
			userIDs = append(userIDs, uid.Value)
		}
	}
	return userIDs, nil
}
