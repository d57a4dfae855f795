package sweeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "integrity_sweep_duration_sec",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 30, 10),
})

var sweepAccountCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_sweep_accounts",
})

var sweepFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_sweep_account_failures",
})

var sweepErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_sweep_errors",
})
