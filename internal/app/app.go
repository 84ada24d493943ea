// Package app wires configuration into the concrete services shared by the
// API server and the offerjob command.
package app

import (
	"context"
	"fmt"

	"github.com/card-offer-notifier/internal/application/catalog"
	"github.com/card-offer-notifier/internal/application/dedup"
	"github.com/card-offer-notifier/internal/application/fanout"
	"github.com/card-offer-notifier/internal/application/notification"
	"github.com/card-offer-notifier/internal/application/offerjob"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/infrastructure/dynamo"
	jwtinfra "github.com/card-offer-notifier/internal/infrastructure/jwt"
	"github.com/card-offer-notifier/internal/infrastructure/offerai"
	"github.com/card-offer-notifier/internal/infrastructure/redislock"
	s3infra "github.com/card-offer-notifier/internal/infrastructure/s3"
	"github.com/card-offer-notifier/internal/infrastructure/sns"
	"go.uber.org/zap"
)

// Client constructors, replaced in tests.
var (
	newS3Client  = s3infra.NewClient
	newSNSClient = sns.NewClient
)

// App holds the wired services. Close releases external connections.
type App struct {
	Runner        *offerjob.Runner
	Notifications notification.Service
	JWT           *jwtinfra.Provider // nil when no key is configured

	closers []func() error
}

// Build connects to every configured backend. DynamoDB tables are created
// when bootstrap is true.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, bootstrap bool) (*App, error) {
	a := &App{}

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("dynamodb client: %w", err)
	}
	if bootstrap {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, log)
	}
	heldCards := dynamo.NewHeldCardRepo(dynamoClient, cfg.DynamoTables.HeldCards)
	notifications := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	links := dynamo.NewUserNotificationRepo(dynamoClient, cfg.DynamoTables.UserNotifications)

	opts := offerjob.Options{
		Workers:    cfg.JobWorkers,
		RunTimeout: cfg.JobRunTimeout,
	}

	if cfg.RedisAddr != "" {
		rdb, err := redislock.NewClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, key lock disabled", zap.Error(err))
		} else {
			opts.Locker = redislock.New(rdb, cfg.JobLockTTL)
			a.closers = append(a.closers, rdb.Close)
		}
	}

	if cfg.S3ReportBucket != "" {
		s3Client, err := newS3Client(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		opts.Reporters = append(opts.Reporters, s3infra.NewReportArchiver(s3Client, cfg.S3ReportBucket))
	}
	if cfg.SNSSummaryTopicARN != "" {
		snsClient, err := newSNSClient(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("sns client: %w", err)
		}
		opts.Reporters = append(opts.Reporters, sns.NewSummaryPublisher(snsClient, cfg.SNSSummaryTopicARN))
	}

	a.Runner = offerjob.NewRunner(
		catalog.NewScanner(heldCards),
		offerai.NewClient(cfg.OfferAIBaseURL, cfg.OfferAIAPIKey, cfg.OfferAITimeout, log.Named("offerai")),
		dedup.NewDeduper(notifications),
		fanout.NewEngine(heldCards, links, log.Named("fanout")),
		log.Named("offerjob"),
		opts,
	)
	a.Notifications = notification.NewService(links, notifications)

	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		a.JWT = p
	} else {
		log.Warn("JWT provider not available", zap.Error(err))
	}
	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}
