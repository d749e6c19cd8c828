package warehouse

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements MetricsRecorder on a Prometheus registry.
type PrometheusRecorder struct {
	rows         *prometheus.CounterVec
	errors       *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runDurations *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the load metrics on reg and returns the
// recorder. Registering twice on the same registry panics, as usual with
// promauto; hold one recorder per process.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrimart_etl_rows_total",
			Help: "Rows processed per warehouse table, partitioned by outcome.",
		}, []string{"table", "outcome"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrimart_etl_load_errors_total",
			Help: "Failed table loads.",
		}, []string{"table"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrimart_etl_table_load_duration_seconds",
			Help:    "Wall time of one table load transaction.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"table"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrimart_etl_runs_total",
			Help: "Completed pipeline runs by final status.",
		}, []string{"status"}),
		runDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrimart_etl_run_duration_seconds",
			Help:    "Wall time of one full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"status"}),
	}
}

// ObserveTableLoad records the outcome of one table load.
func (r *PrometheusRecorder) ObserveTableLoad(table string, counts Counts, duration time.Duration, err error) {
	r.rows.WithLabelValues(table, "read").Add(float64(counts.Read))
	r.rows.WithLabelValues(table, "inserted").Add(float64(counts.Inserted))
	r.rows.WithLabelValues(table, "updated").Add(float64(counts.Updated))
	r.rows.WithLabelValues(table, "skipped").Add(float64(counts.Skipped))
	r.durations.WithLabelValues(table).Observe(duration.Seconds())
	if err != nil {
		r.errors.WithLabelValues(table).Inc()
	}
}

// ObserveRun records the final status and wall time of one pipeline run.
func (r *PrometheusRecorder) ObserveRun(status Status, duration time.Duration) {
	r.runs.WithLabelValues(string(status)).Inc()
	r.runDurations.WithLabelValues(string(status)).Observe(duration.Seconds())
}
