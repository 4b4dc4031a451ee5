package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.IncAttempt("USD")
	m.IncAttempt("USD")
	m.ObserveOutcome("success", time.Now().Add(-2*time.Second))
	m.ObserveOutcome("cancelled", time.Time{})

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "folio_checkout_attempts_total", "currency", "USD")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "folio_checkout_outcomes_total", "status", "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	sum, err := fetchHistogramSum(mfs, "folio_checkout_settle_seconds", "status", "success")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sum, 2.0)

	_, err = fetchHistogramSum(mfs, "folio_checkout_settle_seconds", "status", "cancelled")
	assert.Error(t, err)
}

func TestPublisherMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPublisherMetrics(reg)
	m.IncPublished("order_paid")
	m.IncFailed("order_paid")
	m.IncDeadLettered("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "folio_outbox_published_total", "event_type", "order_paid")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "folio_outbox_dead_lettered_total", "reason", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestMaintenanceMetricsExportsRunsAndPurges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMaintenanceMetrics(reg)
	m.ObserveRun("outbox-retention", time.Second, nil)
	m.ObserveRun("dlq-retention", time.Second, fmt.Errorf("boom"))
	m.AddPurged("outbox-retention", 7)
	m.AddPurged("outbox-retention", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "folio_maintenance_job_runs_total", "result", "failure")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "folio_maintenance_rows_purged_total", "job", "outbox-retention")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)

	sum, err := fetchHistogramSum(mfs, "folio_maintenance_job_duration_seconds", "job", "dlq-retention")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sum)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var checkout *CheckoutMetrics
	checkout.IncAttempt("USD")
	checkout.ObserveOutcome("failed", time.Now())

	NewCheckoutMetrics(nil).IncAttempt("NGN")

	var publisher *PublisherMetrics
	publisher.IncPublished("x")
	publisher.IncFailed("x")
	publisher.IncDeadLettered("x")

	var maintenance *MaintenanceMetrics
	maintenance.ObserveRun("x", time.Second, nil)
	maintenance.AddPurged("x", 3)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
