package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_job_runs_total",
			Help: "Offer notification job runs by outcome",
		},
		[]string{"outcome"}, // success, partial, failed
	)

	JobRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offer_job_run_duration_seconds",
			Help:    "Offer notification job run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
		},
	)

	JobItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_job_items_total",
			Help: "Items produced by offer notification job runs",
		},
		[]string{"kind"}, // processed, new_notifications, user_notifications, errors, skipped
	)

	OfferFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offer_fetch_duration_seconds",
			Help:    "Offer service call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "DynamoDB operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordOfferFetch(status string, d time.Duration) {
	OfferFetchDuration.WithLabelValues(status).Observe(d.Seconds())
}

func RecordStoreOperation(operation, table string, d time.Duration) {
	StoreOperationDuration.WithLabelValues(operation, table).Observe(d.Seconds())
}

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// RecordJobRun exports the counters of one finished run.
func RecordJobRun(outcome string, d time.Duration, processed, created, links, errs, skipped int) {
	JobRuns.WithLabelValues(outcome).Inc()
	JobRunDuration.Observe(d.Seconds())
	JobItems.WithLabelValues("processed").Add(float64(processed))
	JobItems.WithLabelValues("new_notifications").Add(float64(created))
	JobItems.WithLabelValues("user_notifications").Add(float64(links))
	JobItems.WithLabelValues("errors").Add(float64(errs))
	JobItems.WithLabelValues("skipped").Add(float64(skipped))
}
