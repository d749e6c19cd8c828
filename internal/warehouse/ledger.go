package warehouse

import (
	"context"
	"fmt"
	"time"
)

// Ledger maintains the execution audit log. Each run produces exactly one
// entry transitioning Running to Success or Failed; a crash before Finish
// leaves a detectable Running orphan.
type Ledger struct {
	store *Store
	log   Logger
	now   func() time.Time
}

// NewLedger returns a ledger over the given store.
func NewLedger(store *Store, log Logger, now func() time.Time) *Ledger {
	if log == nil {
		log = noopLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, log: log, now: now}
}

// Start inserts a Running entry and returns its execution id. Orphaned
// Running entries from earlier runs are surfaced as a warning but never
// auto-corrected: whether the prior run failed or is still active is
// ambiguous from here.
func (l *Ledger) Start(ctx context.Context, jobName string) (int64, error) {
	var orphans int64
	if err := l.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM etl_execution_log WHERE status = 'Running' AND end_time IS NULL`,
	).Scan(&orphans); err != nil {
		return 0, fmt.Errorf("check orphaned runs: %w", err)
	}
	if orphans > 0 {
		l.log.Warn("prior run entries still marked Running", "count", orphans)
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin ledger start: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	runID, err := nextSurrogate(ctx, l.store, tx, "etl_execution_log", "execution_id")
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		l.store.rebind(`INSERT INTO etl_execution_log (execution_id, job_name, start_time, status) VALUES (?, ?, ?, ?)`),
		runID, jobName, fmtTimestamp(l.now()), string(StatusRunning)); err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ledger start: %w", err)
	}
	committed = true

	l.log.Info("run started", "job", jobName, "run_id", runID)
	return runID, nil
}

// Finish finalizes the entry exactly once. Finalizing an already-finished
// entry is an error.
func (l *Ledger) Finish(ctx context.Context, runID int64, status Status, counts Counts, errText string) error {
	var msg any
	if errText != "" {
		msg = errText
	}
	res, err := l.store.db.ExecContext(ctx,
		l.store.rebind(`UPDATE etl_execution_log
			SET end_time = ?, status = ?, rows_read = ?, rows_inserted = ?, rows_updated = ?, error_message = ?
			WHERE execution_id = ? AND end_time IS NULL`),
		fmtTimestamp(l.now()), string(status), counts.Read, counts.Inserted, counts.Updated, msg, runID)
	if err != nil {
		return fmt.Errorf("finalize ledger entry %d: %w", runID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize ledger entry %d: %w", runID, err)
	}
	if affected != 1 {
		return fmt.Errorf("ledger entry %d already finalized or missing", runID)
	}
	l.log.Info("run finished", "run_id", runID, "status", string(status),
		"rows_read", counts.Read, "rows_inserted", counts.Inserted, "rows_updated", counts.Updated)
	return nil
}

// Entry fetches one ledger row, mostly for monitoring and tests.
func (l *Ledger) Entry(ctx context.Context, runID int64) (LedgerEntry, error) {
	var e LedgerEntry
	var start string
	var end, errMsg *string
	var status string
	err := l.store.db.QueryRowContext(ctx,
		l.store.rebind(`SELECT execution_id, job_name, start_time, end_time, status,
			rows_read, rows_inserted, rows_updated, error_message
			FROM etl_execution_log WHERE execution_id = ?`), runID,
	).Scan(&e.ExecutionID, &e.JobName, &start, &end, &status,
		&e.RowsRead, &e.RowsInserted, &e.RowsUpdated, &errMsg)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("select ledger entry %d: %w", runID, err)
	}
	e.Status = Status(status)
	if e.StartTime, err = time.Parse(timestampLayout, start); err != nil {
		return LedgerEntry{}, fmt.Errorf("ledger entry %d start_time: %w", runID, err)
	}
	if end != nil {
		t, err := time.Parse(timestampLayout, *end)
		if err != nil {
			return LedgerEntry{}, fmt.Errorf("ledger entry %d end_time: %w", runID, err)
		}
		e.EndTime = &t
	}
	if errMsg != nil {
		e.ErrorMessage = *errMsg
	}
	return e, nil
}
