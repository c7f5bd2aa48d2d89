package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Coin ledger
	CoinOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coin_operations_total",
			Help: "Coin ledger operations by outcome.",
		},
		[]string{"operation", "result"}, // unlock|redeem|slip|approve|reject, ok|error
	)
	CoinsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coins_moved_total",
			Help: "Coins credited to or debited from user balances.",
		},
		[]string{"direction"}, // credit|debit
	)
	PendingTopUps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topup_pending",
			Help: "Pending top-up requests seen by the last review queue listing.",
		},
	)

	registerOnce sync.Once
)

// Handler serves /metrics
var Handler = promhttp.Handler

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPLatency, CoinOperations, CoinsMoved, PendingTopUps)
	})
}

// ObserveCoinOp records the outcome of a ledger operation
func ObserveCoinOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CoinOperations.WithLabelValues(operation, result).Inc()
}

// Credit counts coins added to balances
func Credit(amount int64) {
	CoinsMoved.WithLabelValues("credit").Add(float64(amount))
}

// Debit counts coins removed from balances
func Debit(amount int64) {
	CoinsMoved.WithLabelValues("debit").Add(float64(amount))
}
