package warehouse

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrKeyNotFound reports that no current dimension row exists for a business
// key. Fact loaders decide per foreign key whether this admits a fallback
// surrogate key or fails the row.
var ErrKeyNotFound = errors.New("dimension key not found")

// RowError marks a staging row that cannot be loaded correctly. A RowError
// aborts the enclosing table load: silently dropping data is worse than
// stopping.
type RowError struct {
	Table      string
	NaturalKey string
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %s: %v", e.Table, e.NaturalKey, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func errIsNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
