// Package postgres opens a PostgreSQL warehouse database over pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"agrimart/internal/schema"
)

// Open connects to the PostgreSQL server described by dsn and applies the
// warehouse schema. Schema application is idempotent: every statement is
// CREATE ... IF NOT EXISTS or INSERT ... ON CONFLICT DO NOTHING, so reruns
// against a populated warehouse are safe.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema.SplitStatements(schema.Postgres()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
