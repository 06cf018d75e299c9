// Package validate asserts structural invariants on extracted tables before
// any load. Checks collect every violation so a failing run reports the full
// picture, then the batch aborts without writing.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

// Check inspects a table and returns all violations it finds.
type Check func(t *tabular.Table) []error

// Run applies all checks and joins their violations into one error, or nil
// when the table is clean.
func Run(t *tabular.Table, checks ...Check) error {
	var violations []error
	for _, check := range checks {
		violations = append(violations, check(t)...)
	}
	return errors.Join(violations...)
}

// Required fails for each named column missing from the table.
func Required(columns ...string) Check {
	return func(t *tabular.Table) []error {
		var errs []error
		for _, col := range columns {
			if !t.HasColumn(col) {
				errs = append(errs, fmt.Errorf("%w: %q", types.ErrMissingColumn, col))
			}
		}
		return errs
	}
}

// NoAllNull fails for each column that is null in every row, unless the
// column is on the allow list. A wholly-null column signals an upstream
// export defect, not real data.
func NoAllNull(allow ...string) Check {
	allowed := make(map[string]struct{}, len(allow))
	for _, col := range allow {
		allowed[col] = struct{}{}
	}
	return func(t *tabular.Table) []error {
		if t.Len() == 0 {
			return nil
		}
		var errs []error
		for _, col := range t.Columns() {
			if _, ok := allowed[col]; ok {
				continue
			}
			wholeNull := true
			for _, cell := range t.Column(col) {
				if cell != nil {
					wholeNull = false
					break
				}
			}
			if wholeNull {
				errs = append(errs, fmt.Errorf("%w: %q", types.ErrAllNullColumn, col))
			}
		}
		return errs
	}
}

// RowCount fails unless the table has exactly the expected number of rows.
// Used for fixed-cardinality source tables.
func RowCount(expected int) Check {
	return func(t *tabular.Table) []error {
		if t.Len() != expected {
			return []error{fmt.Errorf("%w: expected %d rows, got %d", types.ErrRowCount, expected, t.Len())}
		}
		return nil
	}
}

// UniqueKey fails for each natural key that appears on multiple rows with
// differing payloads. Exact duplicate rows are tolerated; they collapse on
// upsert anyway.
func UniqueKey(keyColumns ...string) Check {
	return func(t *tabular.Table) []error {
		type group struct {
			display string
			payload string
			rows    []int
			mixed   bool
		}
		groups := map[string]*group{}
		var order []string

		for r := 0; r < t.Len(); r++ {
			key := rowFingerprint(t, r, keyColumns)
			payload := rowFingerprint(t, r, t.Columns())
			g, ok := groups[key]
			if !ok {
				groups[key] = &group{display: displayKey(t, r, keyColumns), payload: payload, rows: []int{r}}
				order = append(order, key)
				continue
			}
			g.rows = append(g.rows, r)
			if g.payload != payload {
				g.mixed = true
			}
		}

		var errs []error
		for _, key := range order {
			if g := groups[key]; g.mixed {
				errs = append(errs, fmt.Errorf("%w: key %q on rows %v", types.ErrConflictingDuplicate, g.display, g.rows))
			}
		}
		return errs
	}
}

// displayKey renders key cells for error messages.
func displayKey(t *tabular.Table, row int, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if v := t.Value(row, col); v != nil {
			parts = append(parts, *v)
		} else {
			parts = append(parts, "<null>")
		}
	}
	return strings.Join(parts, "/")
}

// rowFingerprint renders selected cells of a row into a comparable string.
// Nulls are kept distinct from empty strings.
func rowFingerprint(t *tabular.Table, row int, columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		if v := t.Value(row, col); v != nil {
			b.WriteString("v:")
			b.WriteString(*v)
		} else {
			b.WriteString("null")
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}
