package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

func strp(s string) *string { return &s }

func buildTable(t *testing.T, columns []string, rows ...map[string]*string) *tabular.Table {
	t.Helper()
	tbl := tabular.New(columns...)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestRequired(t *testing.T) {
	tbl := buildTable(t, []string{"id", "name"})

	assert.NoError(t, Run(tbl, Required("id", "name")))

	err := Run(tbl, Required("id", "sub_id", "entity"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMissingColumn)
	assert.Contains(t, err.Error(), "sub_id")
	assert.Contains(t, err.Error(), "entity")
}

func TestNoAllNull(t *testing.T) {
	tbl := buildTable(t, []string{"id", "goal", "notes"},
		map[string]*string{"id": strp("1")},
		map[string]*string{"id": strp("2"), "notes": strp("x")},
	)

	err := Run(tbl, NoAllNull())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAllNullColumn)
	assert.Contains(t, err.Error(), `"goal"`)
	assert.NotContains(t, err.Error(), `"notes"`)

	assert.NoError(t, Run(tbl, NoAllNull("goal")), "allow-listed column tolerated")

	empty := buildTable(t, []string{"id"})
	assert.NoError(t, Run(empty, NoAllNull()), "empty table has no wholly-null signal")
}

func TestRowCount(t *testing.T) {
	tbl := buildTable(t, []string{"id"},
		map[string]*string{"id": strp("1")},
		map[string]*string{"id": strp("2")},
	)
	assert.NoError(t, Run(tbl, RowCount(2)))

	err := Run(tbl, RowCount(91))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRowCount)
}

func TestUniqueKey(t *testing.T) {
	t.Run("conflicting payload fails", func(t *testing.T) {
		tbl := buildTable(t, []string{"id", "sub_id", "title"},
			map[string]*string{"id": strp("1"), "sub_id": strp(""), "title": strp("a")},
			map[string]*string{"id": strp("1"), "sub_id": strp(""), "title": strp("b")},
		)
		err := Run(tbl, UniqueKey("id", "sub_id"))
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrConflictingDuplicate)
	})

	t.Run("identical duplicate tolerated", func(t *testing.T) {
		tbl := buildTable(t, []string{"id", "sub_id", "title"},
			map[string]*string{"id": strp("1"), "sub_id": strp(""), "title": strp("a")},
			map[string]*string{"id": strp("1"), "sub_id": strp(""), "title": strp("a")},
		)
		assert.NoError(t, Run(tbl, UniqueKey("id", "sub_id")))
	})

	t.Run("null and empty key cells are distinct", func(t *testing.T) {
		tbl := buildTable(t, []string{"id", "sub_id", "title"},
			map[string]*string{"id": strp("1"), "sub_id": strp(""), "title": strp("a")},
			map[string]*string{"id": strp("1"), "title": strp("b")},
		)
		assert.NoError(t, Run(tbl, UniqueKey("id", "sub_id")))
	})
}

func TestRunCollectsAllViolations(t *testing.T) {
	tbl := buildTable(t, []string{"id", "goal"},
		map[string]*string{"id": strp("1")},
	)
	err := Run(tbl, Required("missing"), NoAllNull(), RowCount(5))
	require.Error(t, err)

	assert.ErrorIs(t, err, types.ErrMissingColumn)
	assert.ErrorIs(t, err, types.ErrAllNullColumn)
	assert.ErrorIs(t, err, types.ErrRowCount)
	assert.False(t, errors.Is(err, types.ErrConflictingDuplicate))
}
