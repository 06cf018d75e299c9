package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// On-disk snapshot formats. CSV is the flat interchange file; JSON keeps
// nulls distinct from empty strings and is what the dashboard payload builds
// on. Writers create parent directories as needed.

// WriteCSV writes the table as a CSV snapshot with a header row. Null cells
// are written as empty fields; CSV cannot tell the two apart, so ReadCSV maps
// empty back to null.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, cell := range row {
			if cell != nil {
				record[i] = *cell
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return f.Close()
}

// ReadCSV loads a CSV snapshot written by WriteCSV. The first record is the
// column order; empty fields read as null.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading CSV %s: missing header row", path)
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		row := make([]*string, len(t.columns))
		for i := range t.columns {
			if i < len(rec) && rec[i] != "" {
				v := rec[i]
				row[i] = &v
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// jsonSnapshot is the JSON file layout: explicit column order plus records,
// so reloading reproduces the table exactly.
type jsonSnapshot struct {
	Columns []string             `json:"columns"`
	Records []map[string]*string `json:"records"`
}

// WriteJSON writes the table as a records file with explicit column order
// and nulls preserved.
func (t *Table) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	snap := jsonSnapshot{Columns: t.columns, Records: make([]map[string]*string, 0, len(t.rows))}
	for _, row := range t.rows {
		rec := make(map[string]*string, len(t.columns))
		for i, c := range t.columns {
			rec[c] = row[i]
		}
		snap.Records = append(snap.Records, rec)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a snapshot written by WriteJSON.
func ReadJSON(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var snap jsonSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding JSON %s: %w", path, err)
	}
	t := New(snap.Columns...)
	for _, rec := range snap.Records {
		if err := t.AppendRow(rec); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return t, nil
}

// ReadRecordsJSON loads a bare JSON array of flat records (the documented
// interchange format for question/note imports). Scalars are stringified;
// nulls stay null.
func ReadRecordsJSON(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding JSON %s: %w", path, err)
	}
	return FromAnyRecords(raw), nil
}

// FromAnyRecords builds a table from decoded-JSON records with mixed value
// types, as the source API and the records interchange file produce them.
// Scalars are stringified, arrays join with "; " so list normalization can
// split them back, nulls stay null.
func FromAnyRecords(raw []map[string]any) *Table {
	records := make([]map[string]string, 0, len(raw))
	for _, rec := range raw {
		flat := make(map[string]string, len(rec))
		for k, v := range rec {
			if v == nil {
				continue
			}
			flat[k] = stringifyCell(v)
		}
		records = append(records, flat)
	}
	return FromRecords(records)
}

func stringifyCell(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case float64:
		// Integers arrive as float64 from encoding/json; render whole
		// numbers without the trailing .0.
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprintf("%v", vv)
	case bool:
		if vv {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, 0, len(vv))
		for _, elem := range vv {
			if elem == nil {
				continue
			}
			parts = append(parts, stringifyCell(elem))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", vv)
	}
}
