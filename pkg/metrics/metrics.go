package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedEvents counts change-feed events published per table and kind.
	FeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_feed_events_total",
			Help: "Total number of change feed events published",
		},
		[]string{"table", "kind"},
	)

	// RefetchFailures counts authoritative refetches that failed after a feed event.
	RefetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_feed_refetch_failures_total",
			Help: "Total number of failed post-event refetches",
		},
		[]string{"table"},
	)

	// NoticesRaised counts ephemeral notices raised by the notification bridge.
	NoticesRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_notices_total",
			Help: "Total number of ephemeral notices raised",
		},
		[]string{"kind"},
	)

	// NotificationWrites counts durable notification persistence attempts by result (ok|error).
	NotificationWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_notification_writes_total",
			Help: "Total number of durable notification writes",
		},
		[]string{"result"},
	)

	// EmailDispatches counts outbound email dispatches by form type and result.
	EmailDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_email_dispatches_total",
			Help: "Total number of email dispatch attempts",
		},
		[]string{"type", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradegate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
