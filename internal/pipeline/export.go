package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fieldline-io/plansync/internal/normalize"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/internal/validate"
	"github.com/fieldline-io/plansync/pkg/types"
)

// Typed columns of the dashboard extract. Everything else is a plain string
// squished and nulled.
var (
	exportGroupColumns = []string{"action_number", "work_package_number", "report"}
	exportDateColumns  = map[string]bool{
		"first_milestone_deadline": true,
		"final_milestone_deadline": true,
		"delivery_date":            true,
	}
	exportListColumns = map[string]bool{
		"work_package_leads": true,
		"action_leads":       true,
		"un_budget":          true,
		"ms_body":            true,
	}
	exportBoolColumns = map[string]bool{
		"big_ticket": true,
	}
)

// ExpectedCounts pins the entity cardinalities shown on the dashboard cards.
// A zero field skips that check.
type ExpectedCounts struct {
	Workstreams  int
	WorkPackages int
	Actions      int
	Leads        int
}

// DefaultExpectedCounts matches the current plan: 3 workstreams, 31 work
// packages, 86 actions excluding subactions, 34 leads.
var DefaultExpectedCounts = ExpectedCounts{
	Workstreams:  3,
	WorkPackages: 31,
	Actions:      86,
	Leads:        34,
}

// Dashboard is the cleaned extract ready for writing: typed records for the
// payload plus the equivalent string table for snapshots.
type Dashboard struct {
	Records    []map[string]any
	Table      *tabular.Table
	Actions    int
	Subactions int
}

// BuildDashboard cleans the raw extract into the dashboard payload: dates to
// ISO strings, delimiter-joined cells to arrays, yes/no to booleans, blanks
// to nulls. Subactions are flagged before the sort by (work package number,
// action number), and the resulting cardinalities must match the expected
// counts.
func BuildDashboard(t *tabular.Table, counts ExpectedCounts) (*Dashboard, error) {
	if err := validate.Run(t,
		validate.Required(exportGroupColumns...),
		validate.NoAllNull(),
	); err != nil {
		return nil, err
	}

	subFlags := validate.FlagSubactions(t, exportGroupColumns, "document_paragraph")

	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	num := func(r int, col string) int {
		n, _ := cellInt(t.Value(r, col))
		return n
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if wa, wb := num(a, "work_package_number"), num(b, "work_package_number"); wa != wb {
			return wa < wb
		}
		return num(a, "action_number") < num(b, "action_number")
	})

	columns := append(t.Columns(), "is_subaction")
	d := &Dashboard{Table: tabular.New(columns...)}
	workstreams := map[string]struct{}{}
	workPackages := map[int]struct{}{}
	leads := map[string]struct{}{}

	for _, r := range order {
		rec := map[string]any{}
		cells := map[string]*string{}
		for _, col := range t.Columns() {
			switch {
			case exportDateColumns[col]:
				if date := cellDate(t.Value(r, col)); date.Valid {
					s := date.String()
					rec[col] = s
					cells[col] = &s
				} else {
					rec[col] = nil
				}
			case exportListColumns[col]:
				tokens := cellList(t.Value(r, col))
				rec[col] = tokens
				if len(tokens) > 0 {
					joined := strings.Join(tokens, "; ")
					cells[col] = &joined
				}
			case exportBoolColumns[col]:
				if b := normalize.ParseBool(cellString(t.Value(r, col))); b != nil {
					rec[col] = *b
					s := "no"
					if *b {
						s = "yes"
					}
					cells[col] = &s
				} else {
					rec[col] = nil
				}
			default:
				if p := cellPtr(t.Value(r, col)); p != nil {
					rec[col] = *p
					cells[col] = p
				} else {
					rec[col] = nil
				}
			}
		}

		sub := subFlags[r]
		rec["is_subaction"] = sub
		flag := "no"
		if sub {
			flag = "yes"
		}
		cells["is_subaction"] = &flag
		if err := d.Table.AppendRow(cells); err != nil {
			return nil, err
		}
		d.Records = append(d.Records, rec)

		if ws := cellString(t.Value(r, "report")); ws != "" {
			workstreams[ws] = struct{}{}
		}
		if wp, ok := cellInt(t.Value(r, "work_package_number")); ok {
			workPackages[wp] = struct{}{}
		}
		for _, lead := range cellList(t.Value(r, "work_package_leads")) {
			leads[lead] = struct{}{}
		}
		if sub {
			d.Subactions++
		} else {
			d.Actions++
		}
	}

	var errs []error
	check := func(name string, got, want int) {
		if want > 0 && got != want {
			errs = append(errs, fmt.Errorf("%w: %s expected %d, got %d", types.ErrCountMismatch, name, want, got))
		}
	}
	check("workstreams", len(workstreams), counts.Workstreams)
	check("work packages", len(workPackages), counts.WorkPackages)
	check("actions", d.Actions, counts.Actions)
	check("leads", len(leads), counts.Leads)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return d, nil
}

// lastUpdated is the dashboard header's freshness stamp.
type lastUpdated struct {
	LastUpdated string `json:"lastUpdated"`
	RunID       string `json:"runId,omitempty"`
}

// WriteDashboard writes the payload and its snapshots under dir: the typed
// records as actions.json, the string table as actions.csv and
// actions_snapshot.json, and last-updated.json with the run timestamp.
func WriteDashboard(env Env, d *Dashboard, dir, runID string, now time.Time) error {
	if env.DryRun {
		env.Log.Info("dry run: dashboard payload computed",
			"records", len(d.Records), "actions", d.Actions, "subactions", d.Subactions)
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	payload, err := json.MarshalIndent(d.Records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dashboard payload: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "actions.json"), payload, 0o644); err != nil {
		return fmt.Errorf("writing dashboard payload: %w", err)
	}

	if err := d.Table.WriteCSV(filepath.Join(dir, "actions.csv")); err != nil {
		return err
	}
	if err := d.Table.WriteJSON(filepath.Join(dir, "actions_snapshot.json")); err != nil {
		return err
	}

	stamp, err := json.Marshal(lastUpdated{
		LastUpdated: now.UTC().Format(time.RFC3339),
		RunID:       runID,
	})
	if err != nil {
		return fmt.Errorf("encoding last-updated stamp: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "last-updated.json"), stamp, 0o644); err != nil {
		return fmt.Errorf("writing last-updated stamp: %w", err)
	}

	env.Log.Info("dashboard written",
		"dir", dir, "records", len(d.Records), "actions", d.Actions, "subactions", d.Subactions)
	return nil
}
