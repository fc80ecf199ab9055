package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Wait kinds.
const (
	WaitOperation  = "operation"
	WaitVisibility = "visibility"
)

// Wait results.
const (
	ResultDone    = "done"
	ResultFailed  = "failed"
	ResultTimeout = "timeout"
	ResultError   = "error"
)

var (
	pollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gce_poll_checks_total",
		Help: "Counter for provider reads issued while waiting",
	}, []string{"kind"})

	waitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gce_waits_total",
		Help: "Counter for finished waits by outcome",
	}, []string{"kind", "result"})

	waitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gce_wait_duration_seconds",
		Help:    "Time spent waiting for operations and resources",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"kind"})

	apiCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gce_api_calls_total",
		Help: "Counter for compute API calls by resource and method",
	}, []string{"resource", "method"})
)

func init() {
	prometheus.MustRegister(pollsTotal, waitsTotal, waitDuration, apiCallsTotal)
}

func IncPollChecks(kind string) {
	pollsTotal.WithLabelValues(kind).Inc()
}

// ObserveWait records the outcome and duration of a wait that began at start.
func ObserveWait(kind, result string, start time.Time) {
	waitsTotal.WithLabelValues(kind, result).Inc()
	waitDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func IncAPICall(resource, method string) {
	apiCallsTotal.WithLabelValues(resource, method).Inc()
}
