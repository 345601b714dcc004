package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	WebhookTotal         *prometheus.CounterVec
	CompletionTotal      *prometheus.CounterVec
	CompletionDurationMs *prometheus.HistogramVec
	SendTotal            *prometheus.CounterVec
	SMSTotal             *prometheus.CounterVec
	BookingTotal         *prometheus.CounterVec
	RateLimitHitTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		WebhookTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_webhook_total",
			Help: "Total webhook deliveries received, by outcome.",
		}, []string{"endpoint", "outcome"}),

		CompletionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_completion_total",
			Help: "Total completion API calls, by status.",
		}, []string{"model", "status"}),

		CompletionDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_completion_duration_ms",
			Help:    "Completion API call duration in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"model"}),

		SendTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_send_total",
			Help: "Total Send API calls, by status.",
		}, []string{"status"}),

		SMSTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_sms_total",
			Help: "Total SMS dispatches, by status.",
		}, []string{"status"}),

		BookingTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_booking_total",
			Help: "Total booking state transitions.",
		}, []string{"state"}),

		RateLimitHitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_rate_limit_hit_total",
			Help: "Total inbound messages dropped by the per-sender rate limit.",
		}, []string{"endpoint"}),
	}
}

// RecordWebhook records a webhook delivery outcome.
func (m *Metrics) RecordWebhook(endpoint, outcome string) {
	m.WebhookTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCompletion records a completion call.
func (m *Metrics) RecordCompletion(model, status string, durationMs float64) {
	m.CompletionTotal.WithLabelValues(model, status).Inc()
	m.CompletionDurationMs.WithLabelValues(model).Observe(durationMs)
}

// RecordSend records a Send API call.
func (m *Metrics) RecordSend(status string) {
	m.SendTotal.WithLabelValues(status).Inc()
}

// RecordSMS records an SMS dispatch.
func (m *Metrics) RecordSMS(status string) {
	m.SMSTotal.WithLabelValues(status).Inc()
}

// RecordBooking records a booking state transition.
func (m *Metrics) RecordBooking(state string) {
	m.BookingTotal.WithLabelValues(state).Inc()
}

// RecordRateLimitHit records a dropped message.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHitTotal.WithLabelValues(endpoint).Inc()
}
