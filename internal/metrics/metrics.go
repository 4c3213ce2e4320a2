// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "language_buddy"

var (
	collaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "Calls to external services by operation and result.",
		},
		[]string{"operation", "result"},
	)

	collaboratorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_duration_seconds",
			Help:      "Latency of external service calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	sessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Conversation state transitions by target state.",
		},
		[]string{"state"},
	)

	staleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_dropped_total",
			Help:      "Async results discarded because the session was cleared.",
		},
	)
)

const (
	OpTranscribe = "transcribe"
	OpReply      = "reply"
	OpSynthesize = "synthesize"
	OpArchive    = "archive"
)

// ObserveCall records one collaborator call started at start.
func ObserveCall(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	collaboratorCalls.WithLabelValues(op, result).Inc()
	collaboratorLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func Transition(state string) {
	sessionTransitions.WithLabelValues(state).Inc()
}

func StaleDropped() {
	staleResults.Inc()
}
