package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.DriverSQLite, filepath.Join(t.TempDir(), "plansync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func inTx(t *testing.T, s *Store, fn func(tx *Tx)) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(tx *Tx) error {
		fn(tx)
		return nil
	}))
}

func seedAction(t *testing.T, s *Store, id int, subID string) {
	t.Helper()
	inTx(t, s, func(tx *Tx) {
		_, err := tx.UpsertRows(context.Background(), actionTestSpec(), []map[string]any{
			{"id": id, "sub_id": subID, "title": "seeded"},
		})
		require.NoError(t, err)
	})
}

func actionTestSpec() UpsertSpec {
	return UpsertSpec{
		Table:      "actions",
		KeyColumns: []string{"id", "sub_id"},
		Columns:    []string{"id", "sub_id", "title"},
	}
}

func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, s.db.Rebind(query), args...))
	return n
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.ErrorIs(t, err, types.ErrUnknownDriver)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx *Tx) error {
		_, err := tx.UpsertRows(ctx, actionTestSpec(), []map[string]any{
			{"id": 1, "sub_id": "", "title": "doomed"},
		})
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 0, countRows(t, s, "SELECT COUNT(*) FROM actions"))
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}
