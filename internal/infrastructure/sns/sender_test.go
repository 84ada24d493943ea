package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	in  *sns.PublishInput
	err error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestReport_PublishesToTopic(t *testing.T) {
	pub := &fakePublisher{}
	p := NewSummaryPublisher(pub, "arn:aws:sns:us-east-1:000000000000:offer-runs")

	err := p.Report(context.Background(), &domain.JobSummary{RunID: "r1", Success: true, Errors: 1})

	require.NoError(t, err)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:offer-runs", aws.ToString(pub.in.TopicArn))
	assert.Equal(t, "partial", aws.ToString(pub.in.MessageAttributes["outcome"].StringValue))
	assert.Contains(t, aws.ToString(pub.in.Message), `"run_id":"r1"`)
}

func TestReport_WrapsPublishError(t *testing.T) {
	p := NewSummaryPublisher(&fakePublisher{err: errors.New("no topic")}, "arn")

	err := p.Report(context.Background(), &domain.JobSummary{Success: true})

	assert.ErrorContains(t, err, "sns publish")
}
