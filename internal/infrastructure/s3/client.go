package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/infrastructure/awsconfig"
)

// reportPrefix is the key prefix under which run reports are archived.
const reportPrefix = "offer-job-runs"

// PutObjectAPI is the subset of the S3 client used by ReportArchiver.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchiver writes each job summary as a JSON object to S3.
type ReportArchiver struct {
	client PutObjectAPI
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewReportArchiver(client PutObjectAPI, bucket string) *ReportArchiver {
	return &ReportArchiver{client: client, bucket: bucket}
}

// ReportKey returns the object key for a run, partitioned by start date.
func ReportKey(s *domain.JobSummary) string {
	return fmt.Sprintf("%s/%s/%s.json", reportPrefix, s.StartedAt.UTC().Format("2006/01/02"), s.RunID)
}

// Report uploads the summary and discards the object location.
func (a *ReportArchiver) Report(ctx context.Context, s *domain.JobSummary) error {
	_, err := a.Archive(ctx, s)
	return err
}

// Archive uploads the summary and returns its s3:// location.
func (a *ReportArchiver) Archive(ctx context.Context, s *domain.JobSummary) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal run report: %w", err)
	}
	key := ReportKey(s)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
