package report

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"agrimart/internal/blob"
	"agrimart/internal/warehouse"
)

func TestArchiveWritesJSONArtifact(t *testing.T) {
	store := blob.NewMemory()
	a := NewArchiver(store, "")
	ctx := context.Background()

	rep := &warehouse.RunReport{
		RunID:      7,
		JobName:    "staging_to_dw",
		StartedAt:  time.Date(2025, time.January, 15, 2, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, time.January, 15, 2, 3, 0, 0, time.UTC),
		Status:     warehouse.StatusSuccess,
		Tables: []warehouse.TableResult{
			{Table: "dim_farmer", Rows: warehouse.Counts{Read: 10, Inserted: 10}},
		},
		Totals: warehouse.Counts{Read: 10, Inserted: 10},
	}
	if err := a.Archive(ctx, rep); err != nil {
		t.Fatalf("archive: %v", err)
	}

	rc, err := store.Get(ctx, "runs/staging_to_dw/7.json")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	var decoded warehouse.RunReport
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if decoded.RunID != 7 || decoded.Status != warehouse.StatusSuccess {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Tables) != 1 || decoded.Tables[0].Table != "dim_farmer" {
		t.Errorf("tables = %+v", decoded.Tables)
	}
}

func TestArchiveRefusesDuplicateRun(t *testing.T) {
	store := blob.NewMemory()
	a := NewArchiver(store, "reports")
	ctx := context.Background()

	rep := &warehouse.RunReport{RunID: 1, JobName: "j", Status: warehouse.StatusFailed}
	if err := a.Archive(ctx, rep); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := a.Archive(ctx, rep); err == nil {
		t.Fatal("expected error re-archiving the same run")
	}
	if got := a.Key("j", 1); got != "reports/j/1.json" {
		t.Errorf("key = %q", got)
	}
}
