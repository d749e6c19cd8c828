package warehouse

import "time"

// Status enumerates the execution ledger states.
type Status string

const (
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Counts aggregates row accounting for one table load or one full run.
type Counts struct {
	Read     int64 `json:"read"`
	Inserted int64 `json:"inserted"`
	Updated  int64 `json:"updated"`
	Skipped  int64 `json:"skipped"`
}

// Add accumulates another set of counts.
func (c *Counts) Add(o Counts) {
	c.Read += o.Read
	c.Inserted += o.Inserted
	c.Updated += o.Updated
	c.Skipped += o.Skipped
}

// TableResult records the outcome of one table load within a run.
type TableResult struct {
	Table      string  `json:"table"`
	Rows       Counts  `json:"rows"`
	DurationMS float64 `json:"duration_ms"`
}

// RunReport is the per-run artifact handed to the report sink. It mirrors the
// ledger entry and adds per-table detail.
type RunReport struct {
	RunID      int64         `json:"run_id"`
	JobName    string        `json:"job_name"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Status     Status        `json:"status"`
	Tables     []TableResult `json:"tables"`
	Totals     Counts        `json:"totals"`
	Error      string        `json:"error,omitempty"`
}

// LedgerEntry mirrors one etl_execution_log row.
type LedgerEntry struct {
	ExecutionID  int64
	JobName      string
	StartTime    time.Time
	EndTime      *time.Time
	Status       Status
	RowsRead     int64
	RowsInserted int64
	RowsUpdated  int64
	ErrorMessage string
}
