package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/infrastructure/awsconfig"
)

// PublishAPI is the subset of the SNS client used by SummaryPublisher.
type PublishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SummaryPublisher announces finished runs on an SNS topic.
type SummaryPublisher struct {
	client   PublishAPI
	topicARN string
}

func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewSummaryPublisher(client PublishAPI, topicARN string) *SummaryPublisher {
	return &SummaryPublisher{client: client, topicARN: topicARN}
}

// Report publishes the summary as JSON. The outcome message attribute lets
// subscribers filter for failed or partial runs.
func (p *SummaryPublisher) Report(ctx context.Context, s *domain.JobSummary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	outcome := s.Outcome()
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("Offer notification run " + outcome),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"outcome": {DataType: aws.String("String"), StringValue: aws.String(outcome)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
