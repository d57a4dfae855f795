package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "integrity_event_duration_sec",
	Help: "Total duration of integrity event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var detectionFlagCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_detection_flags",
	Help: "Number of anomaly flags raised by detection runs",
}, []string{"flag"})

var sanctionActionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_sanction_actions",
	Help: "Number of sanction state transitions applied",
}, []string{"level"})

var sanctionClearedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_sanctions_cleared",
	Help: "Number of full sanction resets (recovery or expiry)",
})

var severeDowngradeCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_severe_downgrades",
	Help: "Number of severe sanctions downgraded by the daily circuit breaker",
})

var withdrawalCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "integrity_withdrawals",
	Help: "Number of withdrawal attempts, by outcome",
}, []string{"outcome"})

var concurrentRetryCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "integrity_concurrent_retries",
	Help: "Number of optimistic-concurrency retries on account/profile saves",
})
