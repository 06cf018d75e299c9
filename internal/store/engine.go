package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// UpsertSpec names the target of an entity upsert: the table, its natural
// key, and the full column list in insert order. Columns listed in
// CoalesceColumns keep their stored value when the incoming one is null, for
// fields the batch source does not carry.
type UpsertSpec struct {
	Table           string
	KeyColumns      []string
	Columns         []string
	CoalesceColumns []string
}

func (s UpsertSpec) nonKeyColumns() []string {
	keys := make(map[string]struct{}, len(s.KeyColumns))
	for _, k := range s.KeyColumns {
		keys[k] = struct{}{}
	}
	var out []string
	for _, c := range s.Columns {
		if _, ok := keys[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// UpsertRows inserts the rows, updating all non-key columns on a natural-key
// conflict. Rows absent from the batch are never touched; the source is
// additive, deletion happens only through the seed-scope operations.
func (t *Tx) UpsertRows(ctx context.Context, spec UpsertSpec, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto(spec.Table)
	ib.Cols(spec.Columns...)
	for _, row := range rows {
		vals := make([]any, len(spec.Columns))
		for i, c := range spec.Columns {
			vals[i] = row[c]
		}
		ib.Values(vals...)
	}

	query, args := ib.Build()
	query += conflictClause(spec)

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("upserting into %s: %w", spec.Table, err)
	}
	return len(rows), nil
}

// conflictClause renders the ON CONFLICT tail of an upsert. The syntax is
// shared by Postgres and SQLite.
func conflictClause(spec UpsertSpec) string {
	nonKey := spec.nonKeyColumns()
	if len(nonKey) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(spec.KeyColumns, ", "))
	}
	coalesce := make(map[string]struct{}, len(spec.CoalesceColumns))
	for _, c := range spec.CoalesceColumns {
		coalesce[c] = struct{}{}
	}
	sets := make([]string, len(nonKey))
	for i, c := range nonKey {
		if _, ok := coalesce[c]; ok {
			sets[i] = fmt.Sprintf("%s = COALESCE(excluded.%s, %s.%s)", c, c, spec.Table, c)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(spec.KeyColumns, ", "), strings.Join(sets, ", "))
}

// KeySet is a snapshot of the key values currently present in one table.
type KeySet map[string]struct{}

// Has reports whether the joined key parts are in the snapshot.
func (s KeySet) Has(parts ...string) bool {
	_, ok := s[strings.Join(parts, "\x1f")]
	return ok
}

// KeySnapshot reads all distinct values of the named key columns, for
// validating references before link and detail loads.
func (t *Tx) KeySnapshot(ctx context.Context, table string, columns ...string) (KeySet, error) {
	sb := t.flavor.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)

	query, args := sb.Build()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshotting %s: %w", table, err)
	}
	defer rows.Close()

	set := KeySet{}
	scan := make([]any, len(columns))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("snapshotting %s: %w", table, err)
		}
		parts := make([]string, len(columns))
		for i := range scan {
			parts[i] = stringifyKeyPart(*scan[i].(*any))
		}
		set[strings.Join(parts, "\x1f")] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshotting %s: %w", table, err)
	}
	return set, nil
}

func stringifyKeyPart(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(vv)
	case string:
		return vv
	case int64:
		return fmt.Sprintf("%d", vv)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// LinkSpec names one link table: the owning key columns and the single
// referenced column.
type LinkSpec struct {
	Table        string
	OwnerColumns []string
	RefColumn    string
}

// Link is one candidate link row: the owning key values plus the referenced
// value.
type Link struct {
	Owner []any
	Ref   string
}

// FilterLinks partitions candidate links by whether their reference exists in
// the snapshot. Rejections come back counted per distinct missing reference,
// sorted, so the caller can log one warning per reference instead of one per
// row. A rejection never aborts the batch.
func FilterLinks(links []Link, valid KeySet) (accepted []Link, missing []MissingRef) {
	counts := map[string]int{}
	for _, l := range links {
		if valid.Has(l.Ref) {
			accepted = append(accepted, l)
		} else {
			counts[l.Ref]++
		}
	}
	for ref, n := range counts {
		missing = append(missing, MissingRef{Ref: ref, Count: n})
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Ref < missing[j].Ref })
	return accepted, missing
}

// MissingRef is one distinct reference that candidate links pointed at but
// the target table does not contain.
type MissingRef struct {
	Ref   string
	Count int
}

// ReconcileLinks replaces the link rows of every owning key present in the
// batch: delete all existing rows for that key, insert the new set, ignore
// exact duplicates. Owning keys absent from the batch keep their rows.
func (t *Tx) ReconcileLinks(ctx context.Context, spec LinkSpec, links []Link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	owners := map[string][]any{}
	for _, l := range links {
		parts := make([]string, len(l.Owner))
		for i, v := range l.Owner {
			parts[i] = stringifyKeyPart(v)
		}
		owners[strings.Join(parts, "\x1f")] = l.Owner
	}

	for _, owner := range owners {
		db := t.flavor.NewDeleteBuilder()
		db.DeleteFrom(spec.Table)
		conds := make([]string, len(spec.OwnerColumns))
		for i, col := range spec.OwnerColumns {
			conds[i] = db.Equal(col, owner[i])
		}
		db.Where(conds...)
		query, args := db.Build()
		if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", spec.Table, err)
		}
	}

	cols := append(append([]string(nil), spec.OwnerColumns...), spec.RefColumn)
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto(spec.Table)
	ib.Cols(cols...)
	for _, l := range links {
		vals := append(append([]any(nil), l.Owner...), l.Ref)
		ib.Values(vals...)
	}
	query, args := ib.Build()
	query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(cols, ", "))

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", spec.Table, err)
	}
	return len(links), nil
}
