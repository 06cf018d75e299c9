// Package pipeline composes the batch runs, one per entity type: extract,
// normalize, validate, then load or export. Every run is independent and
// idempotent; there is no orchestrator above the CLI.
package pipeline

import (
	"strconv"
	"strings"

	"github.com/fieldline-io/plansync/internal/logging"
	"github.com/fieldline-io/plansync/internal/normalize"
	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/pkg/types"
)

// Options are the run switches shared by all pipelines.
type Options struct {
	// DryRun computes and logs intended changes without writing.
	DryRun bool
	// FullRefresh clears the run's own seed scope before reimporting.
	FullRefresh bool
}

// Env carries the run dependencies every pipeline needs.
type Env struct {
	Store *store.Store
	Log   *logging.Logger
	Options
}

// cellString returns the trimmed cell value, "" when null or blank.
func cellString(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// cellPtr returns a squished copy of the cell, nil when null or blank.
func cellPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return normalize.StringOrNil(*v)
}

// cellInt parses an integer cell, tolerating a float rendering like "12.0".
func cellInt(v *string) (int, bool) {
	s := cellString(v)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int(f), true
}

// cellBool maps a yes/no cell to a bool, defaulting to false. The tracker
// leaves the flag blank instead of saying no.
func cellBool(v *string) bool {
	if v == nil {
		return false
	}
	if b := normalize.ParseBool(*v); b != nil {
		return *b
	}
	return false
}

// cellDate decodes a date cell that may hold an ISO date, an ISO timestamp,
// or a spreadsheet day serial. Anything unrecognizable is an absent date,
// never an error.
func cellDate(v *string) types.Date {
	s := cellString(v)
	if s == "" {
		return types.Date{}
	}
	iso := s
	if len(iso) > 10 {
		iso = iso[:10]
	}
	if d, err := types.ParseDate(iso); err == nil {
		return d
	}
	return normalize.SerialDate(s)
}

// cellList splits a delimiter-joined cell into trimmed tokens.
func cellList(v *string) []string {
	if v == nil {
		return nil
	}
	return normalize.SplitList(*v)
}
