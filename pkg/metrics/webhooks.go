package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event outcomes recorded per webhook family.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeUnhandled = "unhandled"
	OutcomeReplayed  = "replayed"
	OutcomeFailed    = "failed"
)

// WebhookMetrics records ingestion counters for webhook events.
type WebhookMetrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received, labeled by family, event type and outcome.",
	}, []string{"family", "event_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Time spent handling a verified webhook event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})
	reg.MustRegister(events, duration)
	return &WebhookMetrics{
		events:   events,
		duration: duration,
	}
}

// ObserveEvent increments the outcome counter for the given family/type.
func (m *WebhookMetrics) ObserveEvent(family, eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(family), normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the handling duration for the named family.
func (m *WebhookMetrics) ObserveDuration(family string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(family)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
