package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fieldline-io/plansync/internal/tabular"
)

// ReadSheet extracts one worksheet into a table. The named sheet is used when
// present, otherwise the workbook's first sheet. headerRow is the zero-based
// row holding column names; rows above it are ignored. Cells are read raw, so
// date cells arrive as day serial numbers for normalization downstream.
// Wholly empty data rows are dropped, empty cells read as null.
func ReadSheet(path, sheet string, headerRow int) (*tabular.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	name := resolveSheet(f, sheet)
	if name == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	if headerRow >= len(rows) {
		return nil, fmt.Errorf("sheet %q: header row %d beyond last row %d", name, headerRow, len(rows))
	}

	var columns []string
	colAt := map[int]string{}
	seen := map[string]struct{}{}
	for i, cell := range rows[headerRow] {
		header := strings.TrimSpace(cell)
		if header == "" {
			continue
		}
		if _, dup := seen[header]; dup {
			return nil, fmt.Errorf("sheet %q: duplicate header %q", name, header)
		}
		seen[header] = struct{}{}
		columns = append(columns, header)
		colAt[i] = header
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sheet %q: header row %d is empty", name, headerRow)
	}

	t := tabular.New(columns...)
	for _, raw := range rows[headerRow+1:] {
		cells := map[string]*string{}
		empty := true
		for i, cell := range raw {
			header, ok := colAt[i]
			if !ok || cell == "" {
				continue
			}
			v := cell
			cells[header] = &v
			empty = false
		}
		if empty {
			continue
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	return t, nil
}

// resolveSheet returns the requested sheet name when the workbook has it,
// otherwise the first sheet.
func resolveSheet(f *excelize.File, sheet string) string {
	list := f.GetSheetList()
	if len(list) == 0 {
		return ""
	}
	for _, name := range list {
		if name == sheet {
			return name
		}
	}
	return list[0]
}
