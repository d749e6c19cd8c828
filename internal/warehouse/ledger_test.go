package warehouse

import (
	"context"
	"testing"
	"time"
)

func TestLedgerLifecycle(t *testing.T) {
	store := newTestStore(t)
	now := day(2025, time.January, 15)
	ledger := NewLedger(store, nil, func() time.Time { return now })
	ctx := context.Background()

	runID, err := ledger.Start(ctx, "nightly_load")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	entry, err := ledger.Entry(ctx, runID)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Status != StatusRunning {
		t.Errorf("status = %q, want Running", entry.Status)
	}
	if entry.EndTime != nil {
		t.Error("running entry has end_time")
	}
	if entry.JobName != "nightly_load" {
		t.Errorf("job_name = %q", entry.JobName)
	}

	now = now.Add(3 * time.Minute)
	counts := Counts{Read: 100, Inserted: 80, Updated: 5, Skipped: 15}
	if err := ledger.Finish(ctx, runID, StatusSuccess, counts, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	entry, err = ledger.Entry(ctx, runID)
	if err != nil {
		t.Fatalf("entry after finish: %v", err)
	}
	if entry.Status != StatusSuccess {
		t.Errorf("status = %q, want Success", entry.Status)
	}
	if entry.EndTime == nil || !entry.EndTime.Equal(now) {
		t.Errorf("end_time = %v, want %v", entry.EndTime, now)
	}
	if entry.RowsRead != 100 || entry.RowsInserted != 80 || entry.RowsUpdated != 5 {
		t.Errorf("row counts = %d/%d/%d", entry.RowsRead, entry.RowsInserted, entry.RowsUpdated)
	}
	if entry.ErrorMessage != "" {
		t.Errorf("error_message = %q", entry.ErrorMessage)
	}

	// Finalizing twice is an error, never a silent overwrite.
	if err := ledger.Finish(ctx, runID, StatusFailed, Counts{}, "late failure"); err == nil {
		t.Fatal("expected error on double finish")
	}
}

func TestLedgerFailureRecordsMessage(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedger(store, nil, time.Now)
	ctx := context.Background()

	runID, err := ledger.Start(ctx, "nightly_load")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ledger.Finish(ctx, runID, StatusFailed, Counts{Read: 3}, "fact_pricing: boom"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	entry, err := ledger.Entry(ctx, runID)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Status != StatusFailed {
		t.Errorf("status = %q", entry.Status)
	}
	if entry.ErrorMessage != "fact_pricing: boom" {
		t.Errorf("error_message = %q", entry.ErrorMessage)
	}
}

func TestLedgerWarnsAboutOrphanedRuns(t *testing.T) {
	store := newTestStore(t)
	log := &captureLogger{}
	ledger := NewLedger(store, log, time.Now)
	ctx := context.Background()

	if _, err := ledger.Start(ctx, "crashed_run"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	// The first entry is still Running; a new run warns but proceeds.
	runID, err := ledger.Start(ctx, "next_run")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if runID != 2 {
		t.Errorf("second run id = %d, want 2", runID)
	}
	if !log.has("warn", "prior run entries still marked Running") {
		t.Error("expected orphan warning")
	}
}
