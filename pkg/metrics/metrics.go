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
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ConversationsCreated tracks conversations opened through the API.
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_conversations_created_total",
			Help: "Total conversations created",
		},
		[]string{"platform"},
	)

	// MessagesAppended tracks messages added to threads.
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_messages_appended_total",
			Help: "Total messages appended to conversations",
		},
		[]string{"platform", "sender"},
	)

	// StatusChanges tracks conversation status updates.
	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_status_changes_total",
			Help: "Total conversation status updates",
		},
		[]string{"from", "to"},
	)

	// UnreadMessages reports the current unread count per platform.
	UnreadMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inbox_unread_messages",
			Help: "Unread messages per platform",
		},
		[]string{"platform"},
	)

	// TemplateOperations tracks template library operations.
	TemplateOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_template_operations_total",
			Help: "Total template operations",
		},
		[]string{"operation"},
	)

	// SuggestionDuration tracks LLM reply suggestion latency.
	SuggestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_suggestion_duration_seconds",
			Help:    "LLM reply suggestion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// EventsPublished tracks inbox events sent to NATS.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_events_published_total",
			Help: "Inbox events published to NATS",
		},
		[]string{"kind", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordSuggestion records metrics for an LLM suggestion call.
func RecordSuggestion(provider, status string, duration float64, tokensIn, tokensOut int) {
	SuggestionDuration.WithLabelValues(provider, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
