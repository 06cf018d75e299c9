package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/internal/logging"
	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

func strp(s string) *string { return &s }

func newEnv(t *testing.T) Env {
	t.Helper()
	s, err := store.Open(types.DriverSQLite, filepath.Join(t.TempDir(), "plansync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return Env{Store: s, Log: logging.Nop()}
}

func buildTable(t *testing.T, columns []string, rows ...map[string]*string) *tabular.Table {
	t.Helper()
	tb := tabular.New(columns...)
	for _, row := range rows {
		require.NoError(t, tb.AppendRow(row))
	}
	return tb
}

func countRows(t *testing.T, env Env, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, env.Store.Get(context.Background(), &n, query, args...))
	return n
}
