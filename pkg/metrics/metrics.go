// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks ops HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ops_request_duration_seconds",
			Help:    "Ops HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total ops HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_requests_total",
			Help: "Total ops HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// UpdatesTotal tracks chat updates by route and outcome.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Chat updates handled",
		},
		[]string{"route", "outcome"},
	)

	// LLMRequestDuration tracks a single model round-trip.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// FunctionCallsTotal tracks function invocations requested by the model.
	FunctionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "function_calls_total",
			Help: "Function calls requested by the model",
		},
		[]string{"function", "status"},
	)

	// ConversationSteps tracks model round-trips per conversation.
	ConversationSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_steps",
			Help:    "Model round-trips per conversation",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		},
	)

	// TranscriptionDuration tracks speech recognition latency.
	TranscriptionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcription_duration_seconds",
			Help:    "Speech recognition duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)

	// TypingIndicatorsActive tracks running typing indicators.
	TypingIndicatorsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "typing_indicators_active",
			Help: "Number of active typing indicators",
		},
	)

	// EventsPublishedTotal tracks events sent to the NATS stream.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_events_published_total",
			Help: "Events published to JetStream",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for an ops HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordUpdate records a handled chat update.
func RecordUpdate(route, outcome string) {
	UpdatesTotal.WithLabelValues(route, outcome).Inc()
}

// RecordLLMRequest records metrics for one completion request.
func RecordLLMRequest(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordFunctionCall records one function call.
func RecordFunctionCall(function, status string) {
	FunctionCallsTotal.WithLabelValues(function, status).Inc()
}

// RecordConversation records the number of steps a conversation took.
func RecordConversation(steps int) {
	ConversationSteps.Observe(float64(steps))
}

// RecordTranscription records one speech recognition call.
func RecordTranscription(provider, status string, duration float64) {
	TranscriptionDuration.WithLabelValues(provider, status).Observe(duration)
}

// RecordEvent records a publish attempt.
func RecordEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// IncrementTypingIndicators increments the active typing indicator count.
func IncrementTypingIndicators() {
	TypingIndicatorsActive.Inc()
}

// DecrementTypingIndicators decrements the active typing indicator count.
func DecrementTypingIndicators() {
	TypingIndicatorsActive.Dec()
}
