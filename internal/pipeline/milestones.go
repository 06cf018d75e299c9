package pipeline

import (
	"context"
	"sort"
	"strconv"

	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

// seedKindColumns maps milestone kinds to their description/deadline column
// pairs in the processed actions table.
var seedKindColumns = []struct {
	kind     string
	desc     string
	deadline string
}{
	{types.KindFirst, "milestone_1", "milestone_1_deadline"},
	{types.KindSecond, "milestone_2", "milestone_2_deadline"},
	{types.KindThird, "milestone_3", "milestone_3_deadline"},
	{types.KindUpcoming, "milestone_upcoming", "milestone_upcoming_deadline"},
	{types.KindFinal, "milestone_final", "milestone_final_deadline"},
}

// ExtractSeedMilestones reads the wide milestone columns off the actions
// table and flattens them into draft milestone rows, one per kind with any
// content. Serials are assigned per action in display order before loading.
func ExtractSeedMilestones(t *tabular.Table) []types.Milestone {
	var all []types.Milestone
	byAction := map[types.ActionKey][]int{}

	for r := 0; r < t.Len(); r++ {
		id, ok := cellInt(t.Value(r, colActionID))
		if !ok {
			continue
		}
		key := types.ActionKey{ID: id, SubID: cellString(t.Value(r, colActionSubID))}
		for _, kc := range seedKindColumns {
			desc := cellPtr(t.Value(r, kc.desc))
			deadline := cellDate(t.Value(r, kc.deadline))
			if desc == nil && !deadline.Valid {
				continue
			}
			byAction[key] = append(byAction[key], len(all))
			all = append(all, types.Milestone{
				ActionID:    key.ID,
				ActionSubID: key.SubID,
				Kind:        kc.kind,
				Description: desc,
				Deadline:    deadline,
				Status:      types.StatusDraft,
			})
		}
	}

	for _, idxs := range byAction {
		sort.SliceStable(idxs, func(i, j int) bool {
			a, b := all[idxs[i]], all[idxs[j]]
			if !a.Deadline.Equal(b.Deadline) {
				return a.Deadline.Before(b.Deadline)
			}
			return types.KindRank(a.Kind) < types.KindRank(b.Kind)
		})
		for serial, idx := range idxs {
			all[idx].Serial = serial + 1
		}
	}
	return all
}

// SeedMilestones replaces all seeded milestones with the batch extracted from
// the actions table. Human-authored milestones survive the reload.
func SeedMilestones(ctx context.Context, env Env, milestones []types.Milestone) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(milestones)

	if env.DryRun {
		env.Log.Info("dry run: seed milestones computed", "milestones", len(milestones))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		deleted, inserted, err := tx.ReplaceSeedMilestones(ctx, milestones)
		if err != nil {
			return err
		}
		report.Deleted = deleted
		report.Inserted = inserted
		return nil
	})
	return report, err
}

// WorkbookAction is one tracking-workbook row resolved to an action: the
// milestone patches to merge plus the review status its "Needs Attention"
// label maps to, when recognized.
type WorkbookAction struct {
	Key     types.ActionKey
	Patches []store.MilestonePatch
	Status  *types.ReviewStatus
}

// workbookKindColumns maps milestone kinds to the tracking workbook's column
// pairs. The workbook has no upcoming column.
var workbookKindColumns = []struct {
	kind     string
	desc     string
	deadline string
}{
	{types.KindFirst, "Milestone 1", "Milestone 1 Deadline"},
	{types.KindSecond, "Milestone 2", "Milestone 2 Deadline"},
	{types.KindThird, "Milestone 3", "Milestone 3 Deadline"},
	{types.KindFinal, "Milestone Final", "Milestone Final - Deadline"},
}

// ParseWorkbookMilestones reads the tracking workbook sheet into per-action
// merge batches. Rows without a parseable action number are skipped, as are
// kinds with neither description nor deadline.
func ParseWorkbookMilestones(t *tabular.Table) []WorkbookAction {
	var out []WorkbookAction
	for r := 0; r < t.Len(); r++ {
		id, ok := cellInt(t.Value(r, "Action No."))
		if !ok {
			continue
		}
		wa := WorkbookAction{
			Key: types.ActionKey{ID: id, SubID: cellString(t.Value(r, "Action Sub-No."))},
		}
		for _, kc := range workbookKindColumns {
			desc := cellPtr(t.Value(r, kc.desc))
			deadline := cellDate(t.Value(r, kc.deadline))
			if desc == nil && !deadline.Valid {
				continue
			}
			wa.Patches = append(wa.Patches, store.MilestonePatch{
				Kind:        kc.kind,
				Description: desc,
				Deadline:    deadline,
			})
		}
		if label := cellString(t.Value(r, "Needs Attention")); label != "" {
			if status, ok := types.ParseReviewLabel(label); ok {
				wa.Status = &status
			}
		}
		if len(wa.Patches) == 0 && wa.Status == nil {
			continue
		}
		out = append(out, wa)
	}
	return out
}

// MergeWorkbookMilestones folds the workbook batches into the store: merge
// patches by kind, apply the review status to the action's internal
// milestones, then renumber serials. Rows naming unknown actions are skipped
// with a warning, never an error.
func MergeWorkbookMilestones(ctx context.Context, env Env, batch []WorkbookAction) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(batch)

	if env.DryRun {
		env.Log.Info("dry run: workbook milestone merge computed", "actions", len(batch))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		actions, err := tx.KeySnapshot(ctx, "actions", "id", "sub_id")
		if err != nil {
			return err
		}
		for _, wa := range batch {
			if !actions.Has(strconv.Itoa(wa.Key.ID), wa.Key.SubID) {
				env.Log.Warn("skipping workbook row for unknown action", "action", wa.Key.String())
				report.Skipped++
				continue
			}
			updated, inserted, err := tx.MergeMilestones(ctx, wa.Key, wa.Patches)
			if err != nil {
				return err
			}
			report.Updated += updated
			report.Inserted += inserted

			if wa.Status != nil {
				if _, err := tx.ApplyReviewStatus(ctx, wa.Key, *wa.Status); err != nil {
					return err
				}
			}
			if err := tx.AssignSerials(ctx, wa.Key); err != nil {
				return err
			}
		}
		return nil
	})
	return report, err
}
