package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

func dashboardFixture(t *testing.T) *tabular.Table {
	t.Helper()
	return buildTable(t,
		[]string{
			"action_number", "work_package_number", "report", "document_paragraph",
			"action_title", "first_milestone_deadline", "work_package_leads", "big_ticket",
		},
		map[string]*string{
			"action_number": strp("2"), "work_package_number": strp("11"), "report": strp("WS1"),
			"action_title":             strp("  Consolidate   offices "),
			"first_milestone_deadline": strp("45658"),
			"work_package_leads":       strp("Secretariat; OLA"),
			"big_ticket":               strp("Yes"),
		},
		map[string]*string{
			"action_number": strp("2"), "work_package_number": strp("11"), "report": strp("WS1"),
			"document_paragraph": strp("para 12"),
			"action_title":       strp("Canonical twin"),
			"work_package_leads": strp("Secretariat"),
		},
		map[string]*string{
			"action_number": strp("1"), "work_package_number": strp("10"), "report": strp("WS2"),
			"action_title":       strp("Review mandates"),
			"work_package_leads": strp("DPO"),
			"big_ticket":         strp("No"),
		},
	)
}

func fixtureCounts() ExpectedCounts {
	return ExpectedCounts{Workstreams: 2, WorkPackages: 2, Actions: 2, Leads: 3}
}

func TestBuildDashboardTypesAndSort(t *testing.T) {
	d, err := BuildDashboard(dashboardFixture(t), fixtureCounts())
	require.NoError(t, err)
	require.Len(t, d.Records, 3)
	assert.Equal(t, 2, d.Actions)
	assert.Equal(t, 1, d.Subactions)

	// Sorted by work package then action number.
	assert.Equal(t, "Review mandates", d.Records[0]["action_title"])

	first := d.Records[0]
	assert.Equal(t, false, first["big_ticket"])
	assert.Nil(t, first["first_milestone_deadline"])
	assert.Equal(t, []string{"DPO"}, first["work_package_leads"])

	second := d.Records[1]
	assert.Equal(t, "2025-01-01", second["first_milestone_deadline"], "serial 45658 decodes to ISO")
	assert.Equal(t, "Consolidate offices", second["action_title"], "whitespace squished")
	assert.Equal(t, true, second["is_subaction"], "twin without document paragraph is the subaction")
	assert.Equal(t, false, d.Records[2]["is_subaction"])
}

func TestBuildDashboardCountMismatch(t *testing.T) {
	counts := fixtureCounts()
	counts.Actions = 86
	counts.Leads = 34
	_, err := BuildDashboard(dashboardFixture(t), counts)
	require.ErrorIs(t, err, types.ErrCountMismatch)
	assert.Contains(t, err.Error(), "actions expected 86")
	assert.Contains(t, err.Error(), "leads expected 34", "all mismatches reported together")
}

func TestWriteDashboardFiles(t *testing.T) {
	env := newEnv(t)
	dir := t.TempDir()
	d, err := BuildDashboard(dashboardFixture(t), fixtureCounts())
	require.NoError(t, err)

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, WriteDashboard(env, d, dir, "run-1", now))

	payload, err := os.ReadFile(filepath.Join(dir, "actions.json"))
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Len(t, records, 3)
	assert.Nil(t, records[0]["first_milestone_deadline"], "absent scalars serialize as null")

	snapshot, err := tabular.ReadCSV(filepath.Join(dir, "actions.csv"))
	require.NoError(t, err)
	assert.True(t, d.Table.Equal(snapshot), "CSV snapshot round-trips")

	stamp, err := os.ReadFile(filepath.Join(dir, "last-updated.json"))
	require.NoError(t, err)
	var lu map[string]string
	require.NoError(t, json.Unmarshal(stamp, &lu))
	assert.Equal(t, "2026-08-28T12:00:00Z", lu["lastUpdated"])
	assert.Equal(t, "run-1", lu["runId"])
}

func TestWriteDashboardDryRun(t *testing.T) {
	env := newEnv(t)
	env.DryRun = true
	dir := t.TempDir()
	d, err := BuildDashboard(dashboardFixture(t), fixtureCounts())
	require.NoError(t, err)

	require.NoError(t, WriteDashboard(env, d, dir, "run-1", time.Now()))
	_, err = os.Stat(filepath.Join(dir, "actions.json"))
	assert.True(t, os.IsNotExist(err))
}
