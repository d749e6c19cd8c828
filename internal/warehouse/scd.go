package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// dimensionSpec describes a versioned dimension table for the generic SCD
// Type 2 machinery: surrogate key column, business key column, and the full
// ordered attribute set used for change detection.
type dimensionSpec struct {
	table       string
	keyColumn   string
	businessCol string
	attrColumns []string
}

// dimensionEntity is one staged entity: its business key plus attribute
// values aligned with the spec's attrColumns (raw and derived, excluding the
// SCD bookkeeping columns).
type dimensionEntity struct {
	businessKey string
	attrs       []any
}

// loadVersionedDimension drives the per-business-key state machine for one
// dimension load: new entities get version 1, changed entities close the
// current version and open version+1, unchanged entities are no-ops.
func loadVersionedDimension(ctx context.Context, s *Store, q Querier, spec dimensionSpec, entities []dimensionEntity, runDate time.Time) (Counts, error) {
	var counts Counts

	nextKey, err := nextSurrogate(ctx, s, q, spec.table, spec.keyColumn)
	if err != nil {
		return counts, err
	}

	selectCurrent := s.rebind(fmt.Sprintf(
		"SELECT %s, version, %s FROM %s WHERE %s = ? AND is_current = TRUE",
		spec.keyColumn, strings.Join(spec.attrColumns, ", "), spec.table, spec.businessCol))

	insertStmt := s.rebind(fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, effective_date, expiration_date, is_current, version) VALUES (%s)",
		spec.table, spec.keyColumn, spec.businessCol, strings.Join(spec.attrColumns, ", "),
		placeholders(len(spec.attrColumns)+6)))

	closeStmt := s.rebind(fmt.Sprintf(
		"UPDATE %s SET is_current = FALSE, expiration_date = ? WHERE %s = ?",
		spec.table, spec.keyColumn))

	for _, e := range entities {
		counts.Read++

		scanTargets := make([]any, 2+len(spec.attrColumns))
		var curKey int64
		var curVersion int
		scanTargets[0] = &curKey
		scanTargets[1] = &curVersion
		current := make([]any, len(spec.attrColumns))
		for i := range current {
			scanTargets[2+i] = &current[i]
		}

		err := q.QueryRowContext(ctx, selectCurrent, e.businessKey).Scan(scanTargets...)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			args := insertArgs(nextKey, e, runDate, 1)
			if _, err := q.ExecContext(ctx, insertStmt, args...); err != nil {
				return counts, fmt.Errorf("insert %s %q: %w", spec.table, e.businessKey, err)
			}
			nextKey++
			counts.Inserted++
		case err != nil:
			return counts, fmt.Errorf("select current %s %q: %w", spec.table, e.businessKey, err)
		case attrsEqual(current, e.attrs):
			counts.Skipped++
		default:
			if _, err := q.ExecContext(ctx, closeStmt, fmtDate(runDate), curKey); err != nil {
				return counts, fmt.Errorf("close %s %q version %d: %w", spec.table, e.businessKey, curVersion, err)
			}
			args := insertArgs(nextKey, e, runDate, curVersion+1)
			if _, err := q.ExecContext(ctx, insertStmt, args...); err != nil {
				return counts, fmt.Errorf("insert %s %q version %d: %w", spec.table, e.businessKey, curVersion+1, err)
			}
			nextKey++
			counts.Inserted++
			counts.Updated++
		}
	}

	return counts, nil
}

func insertArgs(key int64, e dimensionEntity, runDate time.Time, version int) []any {
	args := make([]any, 0, len(e.attrs)+6)
	args = append(args, key, e.businessKey)
	args = append(args, e.attrs...)
	args = append(args, fmtDate(runDate), nil, true, version)
	return args
}

func nextSurrogate(ctx context.Context, s *Store, q Querier, table, keyColumn string) (int64, error) {
	var maxKey sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", keyColumn, table)
	if err := q.QueryRowContext(ctx, query).Scan(&maxKey); err != nil {
		return 0, fmt.Errorf("max %s.%s: %w", table, keyColumn, err)
	}
	return maxKey.Int64 + 1, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// attrsEqual compares a stored attribute row against incoming staging
// attributes, normalizing the type differences between driver scan values and
// Go-native values (booleans scan as integers on SQLite, text as []byte).
func attrsEqual(stored, incoming []any) bool {
	if len(stored) != len(incoming) {
		return false
	}
	for i := range stored {
		if normalizeValue(stored[i]) != normalizeValue(incoming[i]) {
			return false
		}
	}
	return true
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case sql.NullString:
		if !x.Valid {
			return nil
		}
		return x.String
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return float64(x)
	case float64:
		return x
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprintf("%v", x)
	}
}
