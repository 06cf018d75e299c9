package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/fieldline-io/plansync/pkg/types"
)

// milestoneColumns is the insert column list shared by the seed and merge
// paths. The flag columns and review category are always derived from the
// status, never written independently.
var milestoneColumns = []string{
	"action_id", "action_sub_id", "serial_number", "kind", "description",
	"deadline", "is_public", "author_email", "status",
	"is_draft", "needs_attention", "attention_to_timeline",
	"confirmation_needed", "needs_ola_review", "reviewed_by_ola",
	"is_approved", "finalized", "review_category",
}

func milestoneValues(m types.Milestone) []any {
	f := m.Status.Flags()
	return []any{
		m.ActionID, m.ActionSubID, m.Serial, m.Kind, m.Description,
		m.Deadline, m.IsPublic, m.AuthorEmail, m.Status,
		f.IsDraft, f.NeedsAttention, f.AttentionToTimeline,
		f.ConfirmationNeeded, f.NeedsOLAReview, f.ReviewedByOLA,
		f.IsApproved, f.Finalized, m.Status.Category(),
	}
}

// ReplaceSeedMilestones wipes seeded milestones (author is null) and inserts
// the batch. Milestones entered by hand through the dashboard carry an author
// and survive the reload.
func (t *Tx) ReplaceSeedMilestones(ctx context.Context, milestones []types.Milestone) (deleted, inserted int, err error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM action_milestones WHERE author_email IS NULL")
	if err != nil {
		return 0, 0, fmt.Errorf("clearing seeded milestones: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted = int(n)
	}

	if len(milestones) == 0 {
		return deleted, 0, nil
	}

	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("action_milestones")
	ib.Cols(milestoneColumns...)
	for _, m := range milestones {
		if !m.Status.Valid() {
			return deleted, 0, fmt.Errorf("%w: %q", types.ErrInvalidStatus, m.Status)
		}
		if !types.ValidKind(m.Kind) {
			return deleted, 0, fmt.Errorf("%w: %q", types.ErrInvalidKind, m.Kind)
		}
		ib.Values(milestoneValues(m)...)
	}
	query, args := ib.Build()
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return deleted, 0, fmt.Errorf("inserting milestones: %w", err)
	}
	return deleted, len(milestones), nil
}

// MilestonePatch is one kind's incoming description and deadline from the
// tracking workbook.
type MilestonePatch struct {
	Kind        string
	Description *string
	Deadline    types.Date
}

// MergeMilestones folds workbook milestones into one action's internal
// (non-public) milestone set. Kinds already present get their description and
// deadline replaced in place, keeping row identity, serial, and review
// status. New kinds are inserted as drafts with serials continuing after the
// current maximum. The action must already exist; unknown actions are the
// caller's problem to filter beforehand.
func (t *Tx) MergeMilestones(ctx context.Context, key types.ActionKey, patches []MilestonePatch) (updated, inserted int, err error) {
	type existing struct {
		ID     int64  `db:"id"`
		Serial int    `db:"serial_number"`
		Kind   string `db:"kind"`
	}
	var have []existing
	query := t.rebind(`SELECT id, serial_number, kind FROM action_milestones
WHERE action_id = ? AND action_sub_id = ? AND is_public = FALSE`)
	if err := t.tx.SelectContext(ctx, &have, query, key.ID, key.SubID); err != nil {
		return 0, 0, fmt.Errorf("reading milestones for %s: %w", key, err)
	}

	byKind := map[string]existing{}
	nextSerial := 1
	for _, e := range have {
		byKind[e.Kind] = e
		if e.Serial >= nextSerial {
			nextSerial = e.Serial + 1
		}
	}

	for _, p := range patches {
		if !types.ValidKind(p.Kind) {
			return updated, inserted, fmt.Errorf("%w: %q", types.ErrInvalidKind, p.Kind)
		}
		if e, ok := byKind[p.Kind]; ok {
			q := t.rebind("UPDATE action_milestones SET description = ?, deadline = ? WHERE id = ?")
			if _, err := t.tx.ExecContext(ctx, q, p.Description, p.Deadline, e.ID); err != nil {
				return updated, inserted, fmt.Errorf("updating milestone %d: %w", e.ID, err)
			}
			updated++
			continue
		}
		m := types.Milestone{
			ActionID:    key.ID,
			ActionSubID: key.SubID,
			Serial:      nextSerial,
			Kind:        p.Kind,
			Description: p.Description,
			Deadline:    p.Deadline,
			Status:      types.StatusDraft,
		}
		ib := t.flavor.NewInsertBuilder()
		ib.InsertInto("action_milestones")
		ib.Cols(milestoneColumns...)
		ib.Values(milestoneValues(m)...)
		q, args := ib.Build()
		if _, err := t.tx.ExecContext(ctx, q, args...); err != nil {
			return updated, inserted, fmt.Errorf("inserting %s milestone for %s: %w", p.Kind, key, err)
		}
		inserted++
		nextSerial++
	}
	return updated, inserted, nil
}

// ApplyReviewStatus sets the status of all internal milestones of one action
// and regenerates the flag columns and derived category from it. Public
// milestones are never touched by the import.
func (t *Tx) ApplyReviewStatus(ctx context.Context, key types.ActionKey, status types.ReviewStatus) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	f := status.Flags()
	query := t.rebind(`UPDATE action_milestones
SET status = ?, is_draft = ?, needs_attention = ?, attention_to_timeline = ?,
    confirmation_needed = ?, needs_ola_review = ?, reviewed_by_ola = ?,
    is_approved = ?, finalized = ?, review_category = ?
WHERE action_id = ? AND action_sub_id = ? AND is_public = FALSE`)
	res, err := t.tx.ExecContext(ctx, query,
		status, f.IsDraft, f.NeedsAttention, f.AttentionToTimeline,
		f.ConfirmationNeeded, f.NeedsOLAReview, f.ReviewedByOLA,
		f.IsApproved, f.Finalized, status.Category(),
		key.ID, key.SubID)
	if err != nil {
		return 0, fmt.Errorf("applying status for %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("applying status for %s: %w", key, err)
	}
	return int(n), nil
}

// FinalMilestoneID returns the id of one action's internal final milestone,
// nil when the action has none. With several finals the highest serial wins.
func (t *Tx) FinalMilestoneID(ctx context.Context, key types.ActionKey) (*int64, error) {
	var ids []int64
	query := t.rebind(`SELECT id FROM action_milestones
WHERE action_id = ? AND action_sub_id = ? AND kind = ? AND is_public = FALSE
ORDER BY serial_number DESC LIMIT 1`)
	if err := t.tx.SelectContext(ctx, &ids, query, key.ID, key.SubID, types.KindFinal); err != nil {
		return nil, fmt.Errorf("reading final milestone for %s: %w", key, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

// AssignSerials renumbers one action's internal milestones 1..N in display
// order: deadline ascending with absent deadlines last, milestone kind as the
// tiebreak.
func (t *Tx) AssignSerials(ctx context.Context, key types.ActionKey) error {
	type row struct {
		ID       int64      `db:"id"`
		Deadline types.Date `db:"deadline"`
		Kind     string     `db:"kind"`
	}
	var rows []row
	query := t.rebind(`SELECT id, deadline, kind FROM action_milestones
WHERE action_id = ? AND action_sub_id = ? AND is_public = FALSE`)
	if err := t.tx.SelectContext(ctx, &rows, query, key.ID, key.SubID); err != nil {
		return fmt.Errorf("reading milestones for %s: %w", key, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Deadline.Equal(rows[j].Deadline) {
			return rows[i].Deadline.Before(rows[j].Deadline)
		}
		return types.KindRank(rows[i].Kind) < types.KindRank(rows[j].Kind)
	})

	update := t.rebind("UPDATE action_milestones SET serial_number = ? WHERE id = ?")
	for i, r := range rows {
		if _, err := t.tx.ExecContext(ctx, update, i+1, r.ID); err != nil {
			return fmt.Errorf("renumbering milestone %d: %w", r.ID, err)
		}
	}
	return nil
}
