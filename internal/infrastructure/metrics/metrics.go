package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCompleted *prometheus.CounterVec
	TransactionsFailed    *prometheus.CounterVec
	TransactionsReversed  prometheus.Counter
	TransactionDuration   prometheus.Histogram
	TransactionAmount     prometheus.Histogram
	LimitRejections       *prometheus.CounterVec

	// Account metrics
	AccountsCreated   *prometheus.CounterVec
	AccountOperations *prometheus.CounterVec

	// Notification metrics
	NotificationsDispatched prometheus.Counter
	NotificationFailures    prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_transactions_completed_total",
				Help: "Total number of completed transactions by type",
			},
			[]string{"type"},
		),
		TransactionsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_transactions_failed_total",
				Help: "Total number of failed transactions by reason",
			},
			[]string{"reason"},
		),
		TransactionsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transactions_reversed_total",
			Help: "Total number of reversals executed",
		}),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_transaction_duration_seconds",
			Help:    "Duration of transaction execution",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_limit_rejections_total",
				Help: "Total number of transactions rejected by limit window",
			},
			[]string{"window"},
		),
		AccountsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_accounts_created_total",
				Help: "Total number of accounts opened by type",
			},
			[]string{"type"},
		),
		AccountOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),
		NotificationsDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_notifications_dispatched_total",
			Help: "Total number of notifications dispatched",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_notification_failures_total",
			Help: "Total number of notification delivery failures",
		}),
	}
}
