// Package report archives pipeline run reports to a blob store.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"agrimart/internal/blob"
	"agrimart/internal/warehouse"
)

const defaultPrefix = "runs"

// Archiver writes one JSON artifact per pipeline run. It satisfies
// warehouse.ReportSink.
type Archiver struct {
	store  blob.Store
	prefix string
}

// NewArchiver returns an archiver writing under prefix (default "runs").
func NewArchiver(store blob.Store, prefix string) *Archiver {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Archiver{store: store, prefix: prefix}
}

// Key returns the blob key an archived report is stored under.
func (a *Archiver) Key(jobName string, runID int64) string {
	return fmt.Sprintf("%s/%s/%d.json", a.prefix, jobName, runID)
}

// Archive marshals the report and stores it keyed by job name and run id.
// Run ids are ledger surrogate keys, so keys never collide across runs.
func (a *Archiver) Archive(ctx context.Context, rep *warehouse.RunReport) error {
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report %d: %w", rep.RunID, err)
	}
	key := a.Key(rep.JobName, rep.RunID)
	if _, err := a.store.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("archive run report %s: %w", key, err)
	}
	return nil
}
