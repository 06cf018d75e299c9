package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldline-io/plansync/pkg/types"
)

// DetailSpec names one detail table and its per-table columns. The
// idempotency key of a detail row is (action key, header, date, body);
// AnnotationColumn, when set, is an extra nullable column that may be
// backfilled onto an already-existing matching row.
type DetailSpec struct {
	Table            string
	DateColumn       string
	BodyColumn       string
	AnnotationColumn string
}

// Detail is one candidate detail row. A nil AuthorEmail marks a row seeded by
// an import run; seed rows may be wiped and reloaded, human-authored rows
// never.
type Detail struct {
	ActionID    int
	ActionSubID string
	AuthorEmail *string
	Header      *string
	Date        types.Date
	Body        string
	Annotation  any
}

// InsertDetailIfAbsent inserts the detail unless a row with the same
// idempotency key already exists. An absent date matches only an absent date;
// the match uses IS NOT DISTINCT FROM so the nullable columns compare without
// bare untyped placeholders, which Postgres rejects. The insert is also gated
// on the owning action existing; a missing action means no insert, reported
// as false, never an error. When the row already exists and the spec has an
// annotation column, a non-nil annotation is backfilled onto it only if its
// current annotation is null or empty.
func (t *Tx) InsertDetailIfAbsent(ctx context.Context, spec DetailSpec, d Detail) (bool, error) {
	cols := fmt.Sprintf("action_id, action_sub_id, author_email, header, %s, %s", spec.DateColumn, spec.BodyColumn)
	vals := "?, ?, ?, ?, ?, ?"
	args := []any{d.ActionID, d.ActionSubID, d.AuthorEmail, d.Header, d.Date, d.Body}
	if spec.AnnotationColumn != "" {
		cols += ", " + spec.AnnotationColumn
		vals += ", ?"
		args = append(args, d.Annotation)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s)
SELECT %s
WHERE NOT EXISTS (
  SELECT 1 FROM %s
  WHERE action_id = ? AND action_sub_id = ?
    AND header IS NOT DISTINCT FROM ?
    AND %s IS NOT DISTINCT FROM ?
    AND %s = ?
)
AND EXISTS (
  SELECT 1 FROM actions WHERE id = ? AND sub_id = ?
)`, spec.Table, cols, vals, spec.Table, spec.DateColumn, spec.BodyColumn)

	args = append(args,
		d.ActionID, d.ActionSubID,
		d.Header,
		d.Date,
		d.Body,
		d.ActionID, d.ActionSubID,
	)

	res, err := t.tx.ExecContext(ctx, t.rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("inserting into %s: %w", spec.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting into %s: %w", spec.Table, err)
	}
	if n > 0 {
		return true, nil
	}

	if spec.AnnotationColumn != "" && d.Annotation != nil {
		if err := t.backfillAnnotation(ctx, spec, d); err != nil {
			return false, err
		}
	}
	return false, nil
}

// backfillAnnotation sets the annotation on the existing matching row when
// that row has none. An empty string counts as none; a row annotated by hand
// keeps its value.
func (t *Tx) backfillAnnotation(ctx context.Context, spec DetailSpec, d Detail) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ?
WHERE action_id = ? AND action_sub_id = ?
  AND header IS NOT DISTINCT FROM ?
  AND %s IS NOT DISTINCT FROM ?
  AND %s = ?
  AND (%s IS NULL OR CAST(%s AS TEXT) = '')`,
		spec.Table, spec.AnnotationColumn,
		spec.DateColumn,
		spec.BodyColumn,
		spec.AnnotationColumn, spec.AnnotationColumn)

	args := []any{
		d.Annotation,
		d.ActionID, d.ActionSubID,
		d.Header,
		d.Date,
		d.Body,
	}
	if _, err := t.tx.ExecContext(ctx, t.rebind(query), args...); err != nil {
		return fmt.Errorf("backfilling %s.%s: %w", spec.Table, spec.AnnotationColumn, err)
	}
	return nil
}

// ReplaceSeedDetails wipes the seed rows of one import scope and reinserts
// the batch. Seed rows are author-is-null rows, narrowed to the given headers
// when any are set so a refresh clears every header its own import can
// produce and nothing else. Human-authored rows are untouched.
func (t *Tx) ReplaceSeedDetails(ctx context.Context, spec DetailSpec, scopeHeaders []string, details []Detail) (deleted, inserted int, err error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE author_email IS NULL", spec.Table)
	var args []any
	if len(scopeHeaders) > 0 {
		query += " AND header IN (?" + strings.Repeat(", ?", len(scopeHeaders)-1) + ")"
		for _, h := range scopeHeaders {
			args = append(args, h)
		}
	}
	res, err := t.tx.ExecContext(ctx, t.rebind(query), args...)
	if err != nil {
		return 0, 0, fmt.Errorf("clearing seed rows of %s: %w", spec.Table, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted = int(n)
	}

	for _, d := range details {
		ok, err := t.InsertDetailIfAbsent(ctx, spec, d)
		if err != nil {
			return deleted, inserted, err
		}
		if ok {
			inserted++
		}
	}
	return deleted, inserted, nil
}
