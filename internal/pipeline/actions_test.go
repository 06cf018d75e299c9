package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/internal/store"
)

var actionsColumns = []string{
	"id", "sub_id", "work_package_id", "workstream_id",
	"work_package_title", "work_package_goal", "work_package_leads", "work_package_focal_points",
	"indicative_action", "sub_action", "document_paragraph_number", "document_paragraph_text",
	"scope_definition", "legal_considerations", "proposal_advancement_scenario", "un_budgets",
	"is_big_ticket", "needs_member_state_engagement", "tracking_status",
	"public_action_status", "action_record_id",
	"action_leads", "action_focal_points", "action_member_persons",
	"action_support_persons", "action_member_entities",
}

func actionsFixture(t *testing.T) *ActionsBatch {
	t.Helper()
	tb := buildTable(t, actionsColumns,
		map[string]*string{
			"id": strp("2"), "sub_id": strp(""), "work_package_id": strp("11"),
			"workstream_id": strp("WS1"), "work_package_title": strp("Shared services"),
			"indicative_action":       strp("Consolidate regional offices"),
			"document_paragraph_text": strp("para 12"),
			"is_big_ticket":           strp("Yes"),
			"work_package_leads":      strp("Secretariat; OLA"),
			"action_leads":            strp("Secretariat"),
			"action_focal_points":     strp("Ana@Example.org"),
			"action_member_entities":  strp("DPPA"),
		},
		map[string]*string{
			"id": strp("2"), "sub_id": strp("a"), "work_package_id": strp("11"),
			"workstream_id":       strp("WS1"),
			"indicative_action":   strp("Sub-effort on leases"),
			"action_focal_points": strp("ghost@example.org"),
		},
		map[string]*string{
			"id": strp("1"), "sub_id": strp(""), "work_package_id": strp("10"),
			"workstream_id":     strp("WS1"),
			"indicative_action": strp("Review mandates"),
			"tracking_status":   strp("on track"),
		},
	)
	batch, err := ParseActions(tb, 0)
	require.NoError(t, err)
	return batch
}

func TestParseActionsNormalizesAndSorts(t *testing.T) {
	batch := actionsFixture(t)

	require.Len(t, batch.Actions, 3)
	assert.Equal(t, 1, batch.Actions[0].ID, "batch sorts by id then sub-id")
	assert.Equal(t, 2, batch.Actions[1].ID)
	assert.Equal(t, "a", batch.Actions[2].SubID)

	assert.True(t, batch.Actions[1].IsBigTicket)
	assert.Equal(t, []string{"ana@example.org"}, batch.Actions[1].FocalPoints, "emails lowercase")

	require.Len(t, batch.Workstreams, 1)
	require.Len(t, batch.WorkPackages, 2)
	assert.Equal(t, 10, batch.WorkPackages[0].ID)

	require.Len(t, batch.WPLeads, 2, "work-package leads dedupe across rows")
	assert.Equal(t, store.Link{Owner: []any{11}, Ref: "Secretariat"}, batch.WPLeads[0])
}

func TestParseActionsFlagsSubactionsBeforeSort(t *testing.T) {
	batch := actionsFixture(t)

	byKey := map[string]bool{}
	for _, a := range batch.Actions {
		byKey[a.Key().String()] = a.IsSubaction
	}
	assert.False(t, byKey["2"], "row with document paragraph is canonical")
	assert.True(t, byKey["2/a"], "sibling without paragraph is the subaction")
	assert.False(t, byKey["1"], "singleton groups are never flagged")
}

func TestSyncActionsLoadsRowsAndFiltersLinks(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	batch := actionsFixture(t)

	// Only ana exists; ghost's focal-point link must be rejected.
	require.NoError(t, env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		_, err := tx.UpsertRows(ctx, userSpec, []map[string]any{{"email": "ana@example.org"}})
		if err != nil {
			return err
		}
		_, err = tx.UpsertRows(ctx, leadSpec, []map[string]any{
			{"name": "Secretariat"}, {"name": "OLA"},
		})
		if err != nil {
			return err
		}
		_, err = tx.UpsertRows(ctx,
			store.UpsertSpec{Table: "entities", KeyColumns: []string{"name"}, Columns: []string{"name"}},
			[]map[string]any{{"name": "DPPA"}})
		return err
	}))

	report, err := SyncActions(ctx, env, batch)
	require.NoError(t, err)

	assert.Equal(t, 3, countRows(t, env, "SELECT COUNT(*) FROM actions"))
	assert.Equal(t, 2, countRows(t, env, "SELECT COUNT(*) FROM work_packages"))
	assert.Equal(t, 1, countRows(t, env, "SELECT COUNT(*) FROM workstreams"))

	assert.Equal(t, 2, countRows(t, env, "SELECT COUNT(*) FROM work_package_leads"))
	assert.Equal(t, 1, countRows(t, env, "SELECT COUNT(*) FROM action_focal_points"))
	assert.Equal(t, 1, report.Rejected["action_focal_points"], "unknown email dropped, not fatal")
	assert.Equal(t, 1, countRows(t, env, "SELECT COUNT(*) FROM action_member_entities"))

	var sub bool
	require.NoError(t, env.Store.Get(ctx, &sub,
		"SELECT is_subaction FROM actions WHERE id = ? AND sub_id = ?", 2, "a"))
	assert.True(t, sub)
}

func TestSyncActionsKeepsWorkstreamTitles(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	// Titles are curated outside the actions extract; a reload carries none.
	require.NoError(t, env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		_, err := tx.UpsertRows(ctx, workstreamSpec, []map[string]any{
			{"id": "WS1", "title": "Mandate delivery"},
		})
		return err
	}))

	_, err := SyncActions(ctx, env, actionsFixture(t))
	require.NoError(t, err)

	var title string
	require.NoError(t, env.Store.Get(ctx, &title, "SELECT title FROM workstreams WHERE id = ?", "WS1"))
	assert.Equal(t, "Mandate delivery", title, "a reload without title data keeps the stored title")
}

func TestSyncActionsDryRunWritesNothing(t *testing.T) {
	env := newEnv(t)
	env.DryRun = true

	report, err := SyncActions(context.Background(), env, actionsFixture(t))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 0, countRows(t, env, "SELECT COUNT(*) FROM actions"))
}
