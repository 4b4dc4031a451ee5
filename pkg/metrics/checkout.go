package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts payment attempts and how they settled.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	settle   *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on reg. A nil registerer
// yields a recorder whose methods are no-ops.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts that opened a payment widget.",
	}, []string{"currency"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "checkout_outcomes_total",
		Help:      "Checkout attempts by terminal status.",
	}, []string{"status"})
	settle := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "folio",
		Name:      "checkout_settle_seconds",
		Help:      "Time from widget open to terminal status.",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"status"})
	reg.MustRegister(attempts, outcomes, settle)
	return &CheckoutMetrics{attempts: attempts, outcomes: outcomes, settle: settle}
}

func (m *CheckoutMetrics) IncAttempt(currency string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(currency)).Inc()
}

// ObserveOutcome records a terminal status and, when started is known, how long it took.
func (m *CheckoutMetrics) ObserveOutcome(status string, started time.Time) {
	if m == nil || m.outcomes == nil {
		return
	}
	label := normalizeLabel(status)
	m.outcomes.WithLabelValues(label).Inc()
	if !started.IsZero() {
		m.settle.WithLabelValues(label).Observe(time.Since(started).Seconds())
	}
}

// PublisherMetrics tracks outbox relay throughput.
type PublisherMetrics struct {
	published    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "outbox_published_total",
		Help:      "Outbox events delivered to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "outbox_publish_failures_total",
		Help:      "Retryable publish failures.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "outbox_dead_lettered_total",
		Help:      "Outbox events moved to the DLQ.",
	}, []string{"reason"})
	reg.MustRegister(published, failed, deadLettered)
	return &PublisherMetrics{published: published, failed: failed, deadLettered: deadLettered}
}

func (m *PublisherMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *PublisherMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *PublisherMetrics) IncDeadLettered(reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
