package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox / producer metrics
	OutboxMessagesSent    *prometheus.CounterVec
	OutboxPublishFailures prometheus.Counter
	OutboxProduceLatency  prometheus.Histogram
	OutboxPendingRecords  prometheus.Gauge

	// Consumer metrics
	RepliesProcessed *prometheus.CounterVec
	RepliesFailed    *prometheus.CounterVec

	// Domain metrics
	TicketOperations *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// New creates and registers all application metrics
func New(namespace, subsystem string) *Metrics {
	return &Metrics{
		OutboxMessagesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_messages_sent_total",
			Help:      "Total number of outbox records published and marked sent",
		}, []string{"topic"}),
		OutboxPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_publish_failures_total",
			Help:      "Total number of failed batch publish attempts",
		}),
		OutboxProduceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_produce_duration_seconds",
			Help:      "Time spent per producer cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxPendingRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_pending_records",
			Help:      "Current number of undelivered outbox records",
		}),
		RepliesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replies_processed_total",
			Help:      "Total number of reply messages applied",
		}, []string{"topic"}),
		RepliesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replies_failed_total",
			Help:      "Total number of reply messages that could not be applied",
		}, []string{"topic"}),
		TicketOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ticket_operations_total",
			Help:      "Total number of ticket domain operations",
		}, []string{"operation", "status"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Database operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
