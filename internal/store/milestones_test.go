package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/pkg/types"
)

func TestReplaceSeedMilestonesKeepsAuthoredRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		_, _, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 1, Serial: 1, Kind: types.KindFirst, Description: strp("Scoping done"), Status: types.StatusDraft},
			{ActionID: 1, Serial: 2, Kind: types.KindFinal, Deadline: types.NewDate(2026, time.June, 30), Status: types.StatusDraft},
		})
		require.NoError(t, err)
	})

	// A hand-entered milestone joins; the next seed reload must not take it.
	inTx(t, s, func(tx *Tx) {
		_, err := tx.tx.Exec(tx.rebind(`INSERT INTO action_milestones
(action_id, action_sub_id, serial_number, kind, description, author_email, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`),
			1, "", 3, types.KindUpcoming, "Added in the dashboard", "ana@example.org", "draft")
		require.NoError(t, err)
	})

	inTx(t, s, func(tx *Tx) {
		deleted, inserted, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 1, Serial: 1, Kind: types.KindFirst, Description: strp("Scoping revised"), Status: types.StatusDraft},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		assert.Equal(t, 1, inserted)
	})

	assert.Equal(t, 2, countRows(t, s, "SELECT COUNT(*) FROM action_milestones"))
	assert.Equal(t, 1, countRows(t, s, "SELECT COUNT(*) FROM action_milestones WHERE author_email IS NOT NULL"),
		"human-authored milestones survive the reload")
}

func TestReplaceSeedMilestonesRejectsBadValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		_, _, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 1, Kind: "fourth", Status: types.StatusDraft},
		})
		assert.ErrorIs(t, err, types.ErrInvalidKind)

		_, _, err = tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 1, Kind: types.KindFirst, Status: "unheard_of"},
		})
		assert.ErrorIs(t, err, types.ErrInvalidStatus)
	})
}

func TestMergeMilestonesPreservesStatusAndIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := types.ActionKey{ID: 4}

	inTx(t, s, func(tx *Tx) {
		_, _, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 4, Serial: 1, Kind: types.KindFirst, Description: strp("Old first"), Status: types.StatusApproved},
			{ActionID: 4, Serial: 2, Kind: types.KindFinal, Description: strp("Old final"), Status: types.StatusFinalized},
		})
		require.NoError(t, err)
	})

	var firstID int64
	require.NoError(t, s.db.Get(&firstID, s.db.Rebind("SELECT id FROM action_milestones WHERE kind = ?"), types.KindFirst))

	inTx(t, s, func(tx *Tx) {
		updated, inserted, err := tx.MergeMilestones(ctx, key, []MilestonePatch{
			{Kind: types.KindFirst, Description: strp("New first"), Deadline: types.NewDate(2025, time.September, 1)},
			{Kind: types.KindSecond, Description: strp("Brand new second")},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updated)
		assert.Equal(t, 1, inserted)
	})

	var got struct {
		ID          int64              `db:"id"`
		Description string             `db:"description"`
		Status      types.ReviewStatus `db:"status"`
		Serial      int                `db:"serial_number"`
	}
	require.NoError(t, s.db.Get(&got, s.db.Rebind(
		"SELECT id, description, status, serial_number FROM action_milestones WHERE kind = ?"), types.KindFirst))
	assert.Equal(t, firstID, got.ID, "updated kind keeps its row identity")
	assert.Equal(t, "New first", got.Description)
	assert.Equal(t, types.StatusApproved, got.Status, "merge never touches review status")
	assert.Equal(t, 1, got.Serial)

	var second struct {
		Status types.ReviewStatus `db:"status"`
		Serial int                `db:"serial_number"`
	}
	require.NoError(t, s.db.Get(&second, s.db.Rebind(
		"SELECT status, serial_number FROM action_milestones WHERE kind = ?"), types.KindSecond))
	assert.Equal(t, types.StatusDraft, second.Status, "new kinds start as drafts")
	assert.Equal(t, 3, second.Serial, "serials continue after the current maximum")
}

func TestApplyReviewStatusScopedToInternal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := types.ActionKey{ID: 9}

	inTx(t, s, func(tx *Tx) {
		_, _, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 9, Serial: 1, Kind: types.KindFirst, Status: types.StatusDraft},
			{ActionID: 9, Serial: 2, Kind: types.KindFinal, Status: types.StatusDraft},
			{ActionID: 9, Serial: 1, Kind: types.KindFinal, IsPublic: true, Status: types.StatusDraft},
		})
		require.NoError(t, err)
	})

	inTx(t, s, func(tx *Tx) {
		n, err := tx.ApplyReviewStatus(ctx, key, types.StatusFinalized)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	assert.Equal(t, 2, countRows(t, s,
		"SELECT COUNT(*) FROM action_milestones WHERE finalized AND NOT is_draft AND review_category = ?",
		types.CategoryApproved))
	assert.Equal(t, 1, countRows(t, s,
		"SELECT COUNT(*) FROM action_milestones WHERE is_public AND status = ?", types.StatusDraft),
		"public milestones keep their status")

	inTx(t, s, func(tx *Tx) {
		_, err := tx.ApplyReviewStatus(ctx, key, "bogus")
		assert.ErrorIs(t, err, types.ErrInvalidStatus)
	})
}

func TestAssignSerialsOrdersByDeadlineThenKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := types.ActionKey{ID: 6}

	inTx(t, s, func(tx *Tx) {
		_, _, err := tx.ReplaceSeedMilestones(ctx, []types.Milestone{
			{ActionID: 6, Serial: 9, Kind: types.KindFinal, Status: types.StatusDraft},
			{ActionID: 6, Serial: 7, Kind: types.KindSecond, Deadline: types.NewDate(2025, time.May, 1), Status: types.StatusDraft},
			{ActionID: 6, Serial: 8, Kind: types.KindFirst, Deadline: types.NewDate(2025, time.May, 1), Status: types.StatusDraft},
			{ActionID: 6, Serial: 5, Kind: types.KindUpcoming, Deadline: types.NewDate(2025, time.January, 15), Status: types.StatusDraft},
		})
		require.NoError(t, err)
	})

	inTx(t, s, func(tx *Tx) {
		require.NoError(t, tx.AssignSerials(ctx, key))
	})

	serialOf := func(kind string) int {
		return countSerial(t, s, kind)
	}
	assert.Equal(t, 1, serialOf(types.KindUpcoming), "earliest deadline first")
	assert.Equal(t, 2, serialOf(types.KindFirst), "kind breaks the deadline tie")
	assert.Equal(t, 3, serialOf(types.KindSecond))
	assert.Equal(t, 4, serialOf(types.KindFinal), "absent deadline sorts last")
}

func countSerial(t *testing.T, s *Store, kind string) int {
	t.Helper()
	var serial int
	require.NoError(t, s.db.Get(&serial, s.db.Rebind(
		"SELECT serial_number FROM action_milestones WHERE kind = ?"), kind))
	return serial
}
