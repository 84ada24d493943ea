// Package offerjob runs the offer notification pipeline over every held
// card product: fetch offers, resolve each to a canonical notification and
// link it to the card's holders.
package offerjob

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/card-offer-notifier/internal/application/fanout"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/infrastructure/redislock"
	"github.com/card-offer-notifier/internal/pkg/id"
	"github.com/card-offer-notifier/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reportTimeout = 30 * time.Second

type catalogScanner interface {
	ListDistinctCardProducts(ctx context.Context) ([]domain.CardProductKey, error)
}

type offerFetcher interface {
	FetchOffers(ctx context.Context, key domain.CardProductKey) ([]domain.Offer, error)
}

type notificationResolver interface {
	Resolve(ctx context.Context, key domain.CardProductKey, offer domain.Offer) (string, bool, error)
}

type fanoutEngine interface {
	Fanout(ctx context.Context, notificationID string, key domain.CardProductKey) (fanout.Result, error)
}

// Reporter receives every finished summary. Failures are logged only.
type Reporter interface {
	Report(ctx context.Context, s *domain.JobSummary) error
}

type Options struct {
	Workers    int
	RunTimeout time.Duration // 0 means no deadline
	Locker     redislock.Locker
	Reporters  []Reporter
}

// Runner executes one pass of the pipeline at a time.
type Runner struct {
	scanner   catalogScanner
	fetcher   offerFetcher
	resolver  notificationResolver
	fanout    fanoutEngine
	locker    redislock.Locker
	reporters []Reporter
	workers   int
	timeout   time.Duration
	log       *zap.Logger
	running   atomic.Bool
	now       func() time.Time
}

func NewRunner(scanner catalogScanner, fetcher offerFetcher, resolver notificationResolver, engine fanoutEngine, log *zap.Logger, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Locker == nil {
		opts.Locker = redislock.Noop{}
	}
	return &Runner{
		scanner:   scanner,
		fetcher:   fetcher,
		resolver:  resolver,
		fanout:    engine,
		locker:    opts.Locker,
		reporters: opts.Reporters,
		workers:   opts.Workers,
		timeout:   opts.RunTimeout,
		log:       log,
		now:       time.Now,
	}
}

// unitResult is what one worker reports for one card product. The feeder
// also sends one to account for keys it never dispatched.
type unitResult struct {
	processed        bool
	skipped          int
	undispatched     int
	newNotifications int
	links            int
	errors           int
}

// Run executes one pass. Only a catalog scan failure is returned as an
// error; everything after that is absorbed into the summary counters.
// A second call while a pass is in progress returns domain.ErrJobRunning.
func (r *Runner) Run(ctx context.Context) (*domain.JobSummary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, domain.ErrJobRunning
	}
	defer r.running.Store(false)

	summary := &domain.JobSummary{RunID: id.New(), StartedAt: r.now().UTC()}
	log := r.log.With(zap.String("run_id", summary.RunID))
	log.Info("offer job started", zap.Int("workers", r.workers), zap.Duration("timeout", r.timeout))

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	keys, err := r.scanner.ListDistinctCardProducts(runCtx)
	if err != nil {
		log.Error("catalog scan failed", zap.Error(err))
		r.finish(ctx, summary, log)
		return summary, fmt.Errorf("offer job %s: %w", summary.RunID, err)
	}
	log.Info("catalog scanned", zap.Int("card_products", len(keys)))

	r.process(runCtx, keys, summary, log)
	summary.Success = true
	r.finish(ctx, summary, log)
	return summary, nil
}

// Running reports whether a pass is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// process fans keys out to a fixed pool of workers and folds their results
// into summary on a single aggregator goroutine.
func (r *Runner) process(ctx context.Context, keys []domain.CardProductKey, summary *domain.JobSummary, log *zap.Logger) {
	jobs := make(chan domain.CardProductKey)
	results := make(chan unitResult, r.workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			if res.processed {
				summary.Processed++
			}
			summary.Skipped += res.skipped + res.undispatched
			if res.undispatched > 0 {
				summary.Partial = true
			}
			summary.NewNotifications += res.newNotifications
			summary.UserNotificationsCreated += res.links
			summary.Errors += res.errors
		}
	}()

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for i, k := range keys {
			if ctx.Err() == nil {
				select {
				case jobs <- k:
					continue
				case <-ctx.Done():
				}
			}
			left := len(keys) - i
			log.Warn("run deadline reached, skipping remaining card products", zap.Int("skipped", left))
			results <- unitResult{undispatched: left}
			return nil
		}
		return nil
	})
	for range r.workers {
		g.Go(func() error {
			for k := range jobs {
				results <- r.processKey(ctx, k, log)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done
}

// processKey runs the whole pipeline for one card product. Once a key is
// dispatched it runs to completion even if the run deadline passes.
func (r *Runner) processKey(runCtx context.Context, key domain.CardProductKey, log *zap.Logger) unitResult {
	var res unitResult
	ctx := context.WithoutCancel(runCtx)
	log = log.With(zap.String("card_product", key.String()))

	release, ok, err := r.locker.Acquire(ctx, key.String())
	if err != nil {
		log.Warn("key lock unavailable, continuing without it", zap.Error(err))
	} else if !ok {
		log.Info("card product locked by another runner, skipping")
		res.skipped = 1
		return res
	}
	defer release()

	res.processed = true
	offers, err := r.fetcher.FetchOffers(ctx, key)
	if err != nil {
		log.Error("fetch offers failed", zap.Error(err))
		res.errors++
		return res
	}
	if len(offers) == 0 {
		log.Info("no offers returned")
		return res
	}

	for _, offer := range offers {
		notificationID, created, err := r.resolver.Resolve(ctx, key, offer)
		if err != nil {
			log.Error("resolve notification failed", zap.String("title", offer.Title), zap.Error(err))
			res.errors++
			continue
		}
		if created {
			res.newNotifications++
		}
		fr, err := r.fanout.Fanout(ctx, notificationID, key)
		if err != nil {
			log.Error("fan-out failed", zap.String("notification_id", notificationID), zap.Error(err))
			res.errors++
			continue
		}
		res.links += fr.Created
		res.errors += fr.Failed
	}
	log.Debug("card product processed",
		zap.Int("offers", len(offers)),
		zap.Int("new_notifications", res.newNotifications),
		zap.Int("user_notifications", res.links),
		zap.Int("errors", res.errors))
	return res
}

func (r *Runner) finish(ctx context.Context, summary *domain.JobSummary, log *zap.Logger) {
	summary.FinishedAt = r.now().UTC()
	metrics.RecordJobRun(summary.Outcome(), summary.Duration(),
		summary.Processed, summary.NewNotifications, summary.UserNotificationsCreated,
		summary.Errors, summary.Skipped)

	log.Info("offer job finished",
		zap.String("outcome", summary.Outcome()),
		zap.Int("processed", summary.Processed),
		zap.Int("new_notifications", summary.NewNotifications),
		zap.Int("user_notifications_created", summary.UserNotificationsCreated),
		zap.Int("errors", summary.Errors),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("partial", summary.Partial),
		zap.Duration("duration", summary.Duration()))

	if len(r.reporters) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()
	for _, rep := range r.reporters {
		if err := rep.Report(rctx, summary); err != nil {
			log.Warn("run report failed", zap.String("reporter", fmt.Sprintf("%T", rep)), zap.Error(err))
		}
	}
}
