package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/internal/validate"
	"github.com/fieldline-io/plansync/pkg/types"
)

// Source column names of the actions tracker table.
const (
	colActionID        = "id"
	colActionSubID     = "sub_id"
	colWorkPackageID   = "work_package_id"
	colWorkstreamID    = "workstream_id"
	colDocParagraph    = "document_paragraph_text"
	colDocParagraphNum = "document_paragraph_number"
)

// allNullTolerated lists tracker columns that are legitimately empty across
// all rows early in a reporting cycle.
var allNullTolerated = []string{
	"sub_action",
	"legal_considerations",
	"proposal_advancement_scenario",
	"un_budgets",
}

// ActionsBatch is the normalized outcome of one actions extraction:
// the parent entities plus the per-action association lists. Work-package
// links are collected here because the association repeats per action row
// but is keyed by work package.
type ActionsBatch struct {
	Workstreams  []types.Workstream
	WorkPackages []types.WorkPackage
	Actions      []types.Action

	WPLeads       []store.Link
	WPFocalPoints []store.Link
}

// ParseActions validates and normalizes the raw tracker table. Subaction
// flagging runs on input order before the batch is sorted by (id, sub_id)
// for deterministic loading.
func ParseActions(t *tabular.Table, expectedRows int) (*ActionsBatch, error) {
	checks := []validate.Check{
		validate.Required(colActionID, colActionSubID, colWorkPackageID, colWorkstreamID),
		validate.NoAllNull(allNullTolerated...),
		validate.UniqueKey(colActionID, colActionSubID),
	}
	if expectedRows > 0 {
		checks = append(checks, validate.RowCount(expectedRows))
	}
	if err := validate.Run(t, checks...); err != nil {
		return nil, err
	}

	subFlags := validate.FlagSubactions(t,
		[]string{colActionID, colWorkPackageID, colWorkstreamID}, colDocParagraph)

	batch := &ActionsBatch{}
	seenWS := map[string]struct{}{}
	seenWP := map[int]struct{}{}
	seenWPLink := map[string]struct{}{}

	for r := 0; r < t.Len(); r++ {
		id, ok := cellInt(t.Value(r, colActionID))
		if !ok {
			return nil, fmt.Errorf("row %d: unparseable action id %q", r, cellString(t.Value(r, colActionID)))
		}

		a := types.Action{
			ID:              id,
			SubID:           cellString(t.Value(r, colActionSubID)),
			Title:           cellPtr(t.Value(r, "indicative_action")),
			SubAction:       cellPtr(t.Value(r, "sub_action")),
			DocParagraphNum: cellPtr(t.Value(r, colDocParagraphNum)),
			DocParagraph:    cellPtr(t.Value(r, colDocParagraph)),
			Scope:           cellPtr(t.Value(r, "scope_definition")),
			LegalNotes:      cellPtr(t.Value(r, "legal_considerations")),
			Scenario:        cellPtr(t.Value(r, "proposal_advancement_scenario")),
			BudgetNote:      cellPtr(t.Value(r, "un_budgets")),
			IsBigTicket:     cellBool(t.Value(r, "is_big_ticket")),
			NeedsEngagement: cellBool(t.Value(r, "needs_member_state_engagement")),
			TrackingStatus:  cellPtr(t.Value(r, "tracking_status")),
			PublicStatus:    cellPtr(t.Value(r, "public_action_status")),
			SourceRecordID:  cellPtr(t.Value(r, "action_record_id")),
			IsSubaction:     subFlags[r],
			Leads:           cellList(t.Value(r, "action_leads")),
			FocalPoints:     normalizeEmails(cellList(t.Value(r, "action_focal_points"))),
			MemberPersons:   normalizeEmails(cellList(t.Value(r, "action_member_persons"))),
			SupportPersons:  normalizeEmails(cellList(t.Value(r, "action_support_persons"))),
			MemberEntities:  cellList(t.Value(r, "action_member_entities")),
		}
		if wpID, ok := cellInt(t.Value(r, colWorkPackageID)); ok {
			a.WorkPackageID = &wpID
		}
		batch.Actions = append(batch.Actions, a)

		if ws := cellString(t.Value(r, colWorkstreamID)); ws != "" {
			if _, ok := seenWS[ws]; !ok {
				seenWS[ws] = struct{}{}
				batch.Workstreams = append(batch.Workstreams, types.Workstream{ID: ws})
			}
		}
		if a.WorkPackageID != nil {
			wpID := *a.WorkPackageID
			if _, ok := seenWP[wpID]; !ok {
				seenWP[wpID] = struct{}{}
				wp := types.WorkPackage{
					ID:    wpID,
					Title: cellPtr(t.Value(r, "work_package_title")),
					Goal:  cellPtr(t.Value(r, "work_package_goal")),
				}
				if ws := cellString(t.Value(r, colWorkstreamID)); ws != "" {
					wsCopy := ws
					wp.WorkstreamID = &wsCopy
				}
				batch.WorkPackages = append(batch.WorkPackages, wp)
			}
			for _, lead := range cellList(t.Value(r, "work_package_leads")) {
				k := fmt.Sprintf("l\x1f%d\x1f%s", wpID, lead)
				if _, dup := seenWPLink[k]; !dup {
					seenWPLink[k] = struct{}{}
					batch.WPLeads = append(batch.WPLeads, store.Link{Owner: []any{wpID}, Ref: lead})
				}
			}
			for _, email := range cellList(t.Value(r, "work_package_focal_points")) {
				email = types.NormalizeEmail(email)
				k := fmt.Sprintf("f\x1f%d\x1f%s", wpID, email)
				if _, dup := seenWPLink[k]; !dup {
					seenWPLink[k] = struct{}{}
					batch.WPFocalPoints = append(batch.WPFocalPoints, store.Link{Owner: []any{wpID}, Ref: email})
				}
			}
		}
	}

	sort.Slice(batch.Workstreams, func(i, j int) bool {
		return batch.Workstreams[i].ID < batch.Workstreams[j].ID
	})
	sort.Slice(batch.WorkPackages, func(i, j int) bool {
		return batch.WorkPackages[i].ID < batch.WorkPackages[j].ID
	})
	sort.Slice(batch.Actions, func(i, j int) bool {
		if batch.Actions[i].ID != batch.Actions[j].ID {
			return batch.Actions[i].ID < batch.Actions[j].ID
		}
		return batch.Actions[i].SubID < batch.Actions[j].SubID
	})
	return batch, nil
}

func normalizeEmails(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, types.NormalizeEmail(t))
	}
	return out
}

// Upsert specs for the actions batch.
var (
	// The actions extract carries no workstream titles; those are curated
	// on the dashboard side, so a reload must not null them out.
	workstreamSpec = store.UpsertSpec{
		Table:           "workstreams",
		KeyColumns:      []string{"id"},
		Columns:         []string{"id", "title"},
		CoalesceColumns: []string{"title"},
	}
	workPackageSpec = store.UpsertSpec{
		Table:      "work_packages",
		KeyColumns: []string{"id"},
		Columns:    []string{"id", "workstream_id", "title", "goal"},
	}
	actionSpec = store.UpsertSpec{
		Table:      "actions",
		KeyColumns: []string{"id", "sub_id"},
		Columns: []string{
			"id", "sub_id", "work_package_id", "title", "sub_action",
			"doc_paragraph_number", "doc_paragraph_text", "scope_definition",
			"legal_considerations", "advancement_scenario", "budget_note",
			"is_big_ticket", "needs_engagement", "tracking_status",
			"public_status", "source_record_id", "is_subaction",
		},
	}
)

// Link specs owned by the actions batch.
var (
	wpLeadLinks     = store.LinkSpec{Table: "work_package_leads", OwnerColumns: []string{"work_package_id"}, RefColumn: "lead_name"}
	wpFocalLinks    = store.LinkSpec{Table: "work_package_focal_points", OwnerColumns: []string{"work_package_id"}, RefColumn: "user_email"}
	actLeadLinks    = store.LinkSpec{Table: "action_leads", OwnerColumns: []string{"action_id", "action_sub_id"}, RefColumn: "lead_name"}
	actFocalLinks   = store.LinkSpec{Table: "action_focal_points", OwnerColumns: []string{"action_id", "action_sub_id"}, RefColumn: "user_email"}
	actMemberLinks  = store.LinkSpec{Table: "action_member_persons", OwnerColumns: []string{"action_id", "action_sub_id"}, RefColumn: "user_email"}
	actSupportLinks = store.LinkSpec{Table: "action_support_persons", OwnerColumns: []string{"action_id", "action_sub_id"}, RefColumn: "user_email"}
	actEntityLinks  = store.LinkSpec{Table: "action_member_entities", OwnerColumns: []string{"action_id", "action_sub_id"}, RefColumn: "entity"}
)

func actionRow(a types.Action) map[string]any {
	return map[string]any{
		"id":                   a.ID,
		"sub_id":               a.SubID,
		"work_package_id":      a.WorkPackageID,
		"title":                a.Title,
		"sub_action":           a.SubAction,
		"doc_paragraph_number": a.DocParagraphNum,
		"doc_paragraph_text":   a.DocParagraph,
		"scope_definition":     a.Scope,
		"legal_considerations": a.LegalNotes,
		"advancement_scenario": a.Scenario,
		"budget_note":          a.BudgetNote,
		"is_big_ticket":        a.IsBigTicket,
		"needs_engagement":     a.NeedsEngagement,
		"tracking_status":      a.TrackingStatus,
		"public_status":        a.PublicStatus,
		"source_record_id":     a.SourceRecordID,
		"is_subaction":         a.IsSubaction,
	}
}

// SyncActions loads one normalized actions batch: parents first, then the
// action rows, then the seven link tables reconciled per owning key with
// reference filtering against the current users, leads, and entities.
// Everything commits or rolls back as one transaction.
func SyncActions(ctx context.Context, env Env, batch *ActionsBatch) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(batch.Actions)

	if env.DryRun {
		env.Log.Info("dry run: actions batch computed",
			"actions", len(batch.Actions),
			"workstreams", len(batch.Workstreams),
			"work_packages", len(batch.WorkPackages))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		rows := make([]map[string]any, 0, len(batch.Workstreams))
		for _, ws := range batch.Workstreams {
			rows = append(rows, map[string]any{"id": ws.ID, "title": ws.Title})
		}
		n, err := tx.UpsertRows(ctx, workstreamSpec, rows)
		if err != nil {
			return err
		}
		report.AddUpserted(workstreamSpec.Table, n)

		rows = rows[:0]
		for _, wp := range batch.WorkPackages {
			rows = append(rows, map[string]any{
				"id": wp.ID, "workstream_id": wp.WorkstreamID, "title": wp.Title, "goal": wp.Goal,
			})
		}
		if n, err = tx.UpsertRows(ctx, workPackageSpec, rows); err != nil {
			return err
		}
		report.AddUpserted(workPackageSpec.Table, n)

		rows = rows[:0]
		for _, a := range batch.Actions {
			rows = append(rows, actionRow(a))
		}
		if n, err = tx.UpsertRows(ctx, actionSpec, rows); err != nil {
			return err
		}
		report.AddUpserted(actionSpec.Table, n)

		users, err := tx.KeySnapshot(ctx, "users", "email")
		if err != nil {
			return err
		}
		leads, err := tx.KeySnapshot(ctx, "leads", "name")
		if err != nil {
			return err
		}
		entities, err := tx.KeySnapshot(ctx, "entities", "name")
		if err != nil {
			return err
		}

		for _, ls := range buildActionLinks(batch) {
			valid := users
			switch ls.spec.RefColumn {
			case "lead_name":
				valid = leads
			case "entity":
				valid = entities
			}
			accepted, missing := store.FilterLinks(ls.links, valid)
			for _, m := range missing {
				env.Log.Warn("dropping links with missing reference",
					"table", ls.spec.Table, "ref", m.Ref, "count", m.Count)
				report.AddRejected(ls.spec.Table, m.Count)
			}
			n, err := tx.ReconcileLinks(ctx, ls.spec, accepted)
			if err != nil {
				return err
			}
			report.AddLinks(ls.spec.Table, n)
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

type linkSet struct {
	spec  store.LinkSpec
	links []store.Link
}

// buildActionLinks collects the candidate link rows for all seven link
// tables in reconcile order.
func buildActionLinks(batch *ActionsBatch) []linkSet {
	sets := []linkSet{
		{spec: wpLeadLinks, links: batch.WPLeads},
		{spec: wpFocalLinks, links: batch.WPFocalPoints},
		{spec: actLeadLinks}, {spec: actFocalLinks},
		{spec: actMemberLinks}, {spec: actSupportLinks}, {spec: actEntityLinks},
	}

	for _, a := range batch.Actions {
		owner := []any{a.ID, a.SubID}
		for _, lead := range a.Leads {
			sets[2].links = append(sets[2].links, store.Link{Owner: owner, Ref: lead})
		}
		for _, email := range a.FocalPoints {
			sets[3].links = append(sets[3].links, store.Link{Owner: owner, Ref: email})
		}
		for _, email := range a.MemberPersons {
			sets[4].links = append(sets[4].links, store.Link{Owner: owner, Ref: email})
		}
		for _, email := range a.SupportPersons {
			sets[5].links = append(sets[5].links, store.Link{Owner: owner, Ref: email})
		}
		for _, entity := range a.MemberEntities {
			sets[6].links = append(sets[6].links, store.Link{Owner: owner, Ref: entity})
		}
	}
	return sets
}
