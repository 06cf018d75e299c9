// Package normalize holds the pure per-field transforms applied between
// extraction and validation: list splitting, spreadsheet date decoding,
// boolean token mapping, and whitespace cleanup. Nothing here touches I/O or
// raises on malformed input; unparseable values come back as "absent".
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/fieldline-io/plansync/pkg/types"
)

// serialEpoch is the spreadsheet serial-date origin. Day 1 is 1899-12-31,
// carrying the off-by-one the 1900 leap-year bug bakes into every workbook.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// SplitList splits a delimiter-joined cell into ordered, trimmed, non-empty
// tokens. Both "a, b" and "a; b" forms occur in source exports; semicolons
// win when present. Absent input yields an empty (non-nil) slice.
func SplitList(raw string) []string {
	tokens := []string{}
	if strings.TrimSpace(raw) == "" {
		return tokens
	}
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	for _, part := range strings.Split(raw, sep) {
		if t := strings.TrimSpace(part); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// SerialDate decodes a numeric spreadsheet day offset into a calendar date.
// Non-numeric or non-positive input yields an absent date, never an error.
func SerialDate(raw string) types.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Date{}
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n <= 0 {
		return types.Date{}
	}
	return types.DateOf(serialEpoch.AddDate(0, 0, int(n)))
}

// ParseBool maps yes/no tokens case-insensitively to true/false. Anything
// else, including absent input, is unknown (nil).
func ParseBool(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		v := true
		return &v
	case "no":
		v := false
		return &v
	default:
		return nil
	}
}

// Squish collapses internal whitespace runs to single spaces and trims the
// ends. Empty results stay empty.
func Squish(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// StringOrNil squishes raw and returns nil for empty results, so missing and
// sentinel cells coerce to SQL NULL.
func StringOrNil(raw string) *string {
	s := Squish(raw)
	if s == "" {
		return nil
	}
	return &s
}
