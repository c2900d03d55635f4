package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "democredit_ledger_operations_total",
			Help: "Total number of ledger operations by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "democredit_ledger_operation_duration_seconds",
			Help:    "Ledger operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	UsersRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "democredit_users_registered_total",
			Help: "Total number of registered users",
		},
	)

	BlacklistRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "democredit_blacklist_rejections_total",
			Help: "Total number of registrations rejected by the Karma blacklist",
		},
	)
)

// RecordLedgerOperation tracks one completed ledger operation.
func RecordLedgerOperation(category, outcome string, seconds float64) {
	LedgerOperationsTotal.WithLabelValues(category, outcome).Inc()
	LedgerOperationDuration.WithLabelValues(category).Observe(seconds)
}
