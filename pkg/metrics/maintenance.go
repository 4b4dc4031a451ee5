package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics records how each maintenance job fared.
type MaintenanceMetrics struct {
	runs     *prometheus.CounterVec
	purged   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMaintenanceMetrics(reg prometheus.Registerer) *MaintenanceMetrics {
	if reg == nil {
		return &MaintenanceMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "maintenance_job_runs_total",
		Help:      "Maintenance job runs by result.",
	}, []string{"job", "result"})
	purged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "maintenance_rows_purged_total",
		Help:      "Rows removed by retention jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "folio",
		Name:      "maintenance_job_duration_seconds",
		Help:      "Wall time of a maintenance job run.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(runs, purged, duration)
	return &MaintenanceMetrics{runs: runs, purged: purged, duration: duration}
}

// ObserveRun counts one run of job and how long it took.
func (m *MaintenanceMetrics) ObserveRun(job string, took time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	label := normalizeLabel(job)
	m.runs.WithLabelValues(label, result).Inc()
	m.duration.WithLabelValues(label).Observe(took.Seconds())
}

func (m *MaintenanceMetrics) AddPurged(job string, rows int64) {
	if m == nil || m.purged == nil || rows <= 0 {
		return
	}
	m.purged.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
