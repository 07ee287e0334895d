package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "http",
			Name:      "orders_created_total",
			Help:      "Total number of orders created over HTTP",
		},
	)

	paymentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "http",
			Name:      "payments_processed_total",
			Help:      "Total number of payment processing attempts by outcome",
		},
		[]string{"status"},
	)

	ordersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "http",
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancelled orders",
		},
	)

	ordersRefunded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "http",
			Name:      "orders_refunded_total",
			Help:      "Total number of refund operations",
		},
	)

	lockTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "core",
			Name:      "lock_timeouts_total",
			Help:      "Total number of row lock acquisition timeouts",
		},
	)

	casConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "core",
			Name:      "version_conflicts_total",
			Help:      "Total number of optimistic version check failures",
		},
	)
)

var (
	submissionsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "kafka_consumer",
			Name:      "submissions_processed_total",
			Help:      "Total number of successfully processed order submissions",
		},
	)

	submissionsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "kafka_consumer",
			Name:      "submissions_failed_total",
			Help:      "Total number of failed order submission attempts",
		},
	)

	submissionsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "kafka_consumer",
			Name:      "submissions_dlq_total",
			Help:      "Total number of submissions written to DLQ",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_processing",
			Subsystem: "kafka_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersCreated,
		paymentsProcessed,
		ordersCancelled,
		ordersRefunded,
		lockTimeouts,
		casConflicts,

		submissionsProcessed,
		submissionsFailed,
		submissionsDLQ,
		commitErrors,
	)
}
