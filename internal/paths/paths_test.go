package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	dir, err := Resolve("/explicit", "/configured", DefaultInputDirName)
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir, "flag wins")

	dir, err = Resolve("", "/configured", DefaultInputDirName)
	require.NoError(t, err)
	assert.Equal(t, "/configured", dir)

	dir, err = Resolve("", "", DefaultInputDirName)
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, DefaultInputDirName), dir)
}

func TestResolveRelativeFlagIsAbsolute(t *testing.T) {
	dir, err := Resolve("relative/dir", "", DefaultOutputDirName)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}

func TestIn(t *testing.T) {
	assert.Equal(t, "/in/records.json", In("/in", "records.json"))
	assert.Equal(t, "/elsewhere/records.json", In("/in", "/elsewhere/records.json"))
}

func TestEnsure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, Ensure(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
