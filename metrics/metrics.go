// Package metrics exposes Prometheus collectors for index syncing, engine
// tasks, dispatch decisions, queue jobs and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "searchsync"

var (
	syncOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_total",
			Help:      "Index, remove, flush and search operations by outcome",
		},
		[]string{"op", "status"},
	)

	taskWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_task_wait_seconds",
			Help:      "Time spent waiting for engine tasks to reach a terminal state",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_transitions_total",
			Help:      "Dispatch state transitions of record mutation events",
		},
		[]string{"state"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_jobs_total",
			Help:      "Background sync jobs by queue and outcome",
		},
		[]string{"queue", "outcome"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_breaker_state",
			Help:      "Circuit breaker state of the engine client (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(syncOpsTotal, taskWaitDuration, dispatchTotal, jobsTotal, breakerState)
}

// RecordSyncOp counts one engine facade operation.
func RecordSyncOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	syncOpsTotal.WithLabelValues(op, status).Inc()
}

// ObserveTaskWait records how long a task wait took and how it ended.
func ObserveTaskWait(status string, d time.Duration) {
	taskWaitDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordDispatch counts a dispatch state transition.
func RecordDispatch(state string) {
	dispatchTotal.WithLabelValues(state).Inc()
}

// RecordJob counts a processed background job.
func RecordJob(queue, outcome string) {
	jobsTotal.WithLabelValues(queue, outcome).Inc()
}

// SetBreakerState publishes the breaker state of the named client.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
