package warehouse

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveTableLoad("dim_farmer", Counts{Read: 10, Inserted: 7, Updated: 2, Skipped: 1}, 25*time.Millisecond, nil)
	rec.ObserveTableLoad("fact_pricing", Counts{Read: 3}, 5*time.Millisecond, errors.New("boom"))
	rec.ObserveRun(StatusSuccess, time.Second)
	rec.ObserveRun(StatusFailed, time.Second)

	if got := testutil.ToFloat64(rec.rows.WithLabelValues("dim_farmer", "inserted")); got != 7 {
		t.Errorf("inserted counter = %v, want 7", got)
	}
	if got := testutil.ToFloat64(rec.rows.WithLabelValues("dim_farmer", "skipped")); got != 1 {
		t.Errorf("skipped counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.errors.WithLabelValues("fact_pricing")); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.errors.WithLabelValues("dim_farmer")); got != 0 {
		t.Errorf("error counter = %v, want 0", got)
	}
	if got := testutil.ToFloat64(rec.runs.WithLabelValues("Success")); got != 1 {
		t.Errorf("runs counter = %v, want 1", got)
	}
	// One run duration sample per observed status.
	if got := testutil.CollectAndCount(rec.runDurations, "agrimart_etl_run_duration_seconds"); got != 2 {
		t.Errorf("run duration series = %d, want 2", got)
	}
}
