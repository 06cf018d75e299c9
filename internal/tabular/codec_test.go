package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("id", "note", "deadline")
	require.NoError(t, tbl.AppendRow(map[string]*string{"id": strp("1"), "note": strp("has, comma and \"quotes\""), "deadline": strp("2025-01-15")}))
	require.NoError(t, tbl.AppendRow(map[string]*string{"id": strp("2")}))

	path := filepath.Join(t.TempDir(), "out", "snapshot.csv")
	require.NoError(t, tbl.WriteCSV(path))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(got), "CSV round trip must reproduce rows and column order")
}

func TestJSONRoundTripPreservesNulls(t *testing.T) {
	tbl := New("id", "body")
	require.NoError(t, tbl.AppendRow(map[string]*string{"id": strp("7"), "body": nil}))
	require.NoError(t, tbl.AppendRow(map[string]*string{"id": strp("8"), "body": strp("")}))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, tbl.WriteJSON(path))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(got), "JSON keeps null distinct from empty string")
}

func TestReadRecordsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	payload := `[
  {"ActionNo": 12, "question_date": "2025-03-01", "question": "Scope confirmed?", "notes": null},
  {"ActionNo": 14, "question_date": null, "question": "Budget line?"}
]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	tbl, err := ReadRecordsJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	v, ok := tbl.Cell(0, "ActionNo")
	require.True(t, ok)
	assert.Equal(t, "12", v, "integers must not render with a .0 suffix")

	_, ok = tbl.Cell(1, "question_date")
	assert.False(t, ok, "JSON null reads as null cell")
}

func TestReadCSVMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := ReadCSV(path)
	require.Error(t, err)
}
