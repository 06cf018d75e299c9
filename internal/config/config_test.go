package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-io/plansync/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, types.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "plansync.db", cfg.DBPath)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "development", cfg.LogMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLANSYNC_DB_DRIVER", "postgres")
	t.Setenv("PLANSYNC_DB_HOST", "db.internal")
	t.Setenv("PLANSYNC_DB_PORT", "5433")
	t.Setenv("PLANSYNC_DB_NAME", "tracker")
	t.Setenv("PLANSYNC_DB_USER", "loader")
	t.Setenv("PLANSYNC_DB_PASSWORD", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, types.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 5433, cfg.DBPort)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=tracker")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.env")
	require.NoError(t, os.WriteFile(path, []byte("PLANSYNC_OUTPUT_DIR=/srv/dashboard\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PLANSYNC_OUTPUT_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/dashboard", cfg.OutputDir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestValidateStore(t *testing.T) {
	sqlite := Config{DBDriver: types.DriverSQLite, DBPath: "x.db"}
	assert.NoError(t, sqlite.ValidateStore())

	sqlite.DBPath = ""
	assert.ErrorIs(t, sqlite.ValidateStore(), types.ErrMissingConfig)

	pg := Config{DBDriver: types.DriverPostgres, DBHost: "h", DBName: "d", DBUser: "u", DBPassword: "p"}
	assert.NoError(t, pg.ValidateStore())

	pg.DBPassword = ""
	err := pg.ValidateStore()
	assert.ErrorIs(t, err, types.ErrMissingConfig)
	assert.Contains(t, err.Error(), "PLANSYNC_DB_PASSWORD")

	assert.ErrorIs(t, Config{DBDriver: "oracle"}.ValidateStore(), types.ErrUnknownDriver)
}

func TestValidateSource(t *testing.T) {
	ok := Config{SourceBaseURL: "https://api.example.com", SourceToken: "tok", SourceBase: "appX"}
	assert.NoError(t, ok.ValidateSource())

	err := Config{SourceBaseURL: "https://api.example.com"}.ValidateSource()
	assert.ErrorIs(t, err, types.ErrMissingConfig)
	assert.Contains(t, err.Error(), "PLANSYNC_SOURCE_TOKEN")
	assert.Contains(t, err.Error(), "PLANSYNC_SOURCE_BASE")
}
