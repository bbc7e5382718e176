// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunsTotal tracks assistant runs by terminal outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_runs_total",
			Help: "Total assistant runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks wall-clock duration of assistant runs.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_run_duration_seconds",
			Help:    "Assistant run duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"outcome"},
	)

	// RunPollIterations tracks how many poll iterations a run needed.
	RunPollIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_run_poll_iterations",
			Help:    "Poll loop iterations per assistant run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
		},
	)

	// ToolCallsTotal tracks dispatched tool calls by tool name and status.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tool_calls_total",
			Help: "Total tool calls dispatched to handlers",
		},
		[]string{"tool", "status"},
	)

	// RetrievalRequestsTotal tracks requests to the retrieval service.
	RetrievalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_requests_total",
			Help: "Total requests issued to the retrieval service",
		},
		[]string{"operation", "status"},
	)

	// DeliveriesTotal tracks outbound WhatsApp deliveries.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_deliveries_total",
			Help: "Total outbound WhatsApp message deliveries",
		},
		[]string{"status"},
	)

	// TranscriptionsTotal tracks audio transcriptions.
	TranscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcriptions_total",
			Help: "Total audio message transcriptions",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRun records a completed assistant run.
func RecordRun(outcome string, duration float64, iterations int) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.WithLabelValues(outcome).Observe(duration)
	RunPollIterations.Observe(float64(iterations))
}

// RecordToolCall records a dispatched tool call.
func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordRetrievalRequest records a retrieval service request.
func RecordRetrievalRequest(operation, status string) {
	RetrievalRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDelivery records an outbound WhatsApp delivery attempt.
func RecordDelivery(status string) {
	DeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordTranscription records an audio transcription attempt.
func RecordTranscription(status string) {
	TranscriptionsTotal.WithLabelValues(status).Inc()
}
