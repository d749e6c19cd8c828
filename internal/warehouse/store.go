// Package warehouse implements the staging-to-warehouse load orchestration:
// surrogate key resolution, slowly-changing dimension maintenance, fact loads
// with natural-key idempotency, and the execution audit ledger.
package warehouse

import (
	"context"
	"database/sql"
	"time"

	"agrimart/internal/schema"
)

// Querier is the statement surface loaders run against. Both *sql.DB and
// *sql.Tx satisfy it; table loads always pass a *sql.Tx so that each load is
// one bounded transactional unit.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps an open warehouse database handle together with its dialect.
// The connection is owned by the caller; the store never closes it.
type Store struct {
	db      *sql.DB
	dialect schema.Dialect
}

// NewStore wraps an already-open database handle.
func NewStore(db *sql.DB, dialect schema.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying handle for integration hooks and tests.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect the store was opened with.
func (s *Store) Dialect() schema.Dialect { return s.dialect }

// Begin opens a transaction for one table load.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) rebind(query string) string {
	return schema.Rebind(s.dialect, query)
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

func fmtDate(t time.Time) string      { return t.Format(dateLayout) }
func fmtTimestamp(t time.Time) string { return t.UTC().Format(timestampLayout) }
