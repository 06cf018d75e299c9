// Package config loads run configuration from the environment. A .env file,
// when present, is folded into the process environment first, then viper
// reads PLANSYNC_* variables over the defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fieldline-io/plansync/pkg/types"
)

const envPrefix = "PLANSYNC"

// Config keys. Each maps to PLANSYNC_<KEY> with dots replaced by underscores.
const (
	cfgKeyDBDriver   = "db.driver"
	cfgKeyDBHost     = "db.host"
	cfgKeyDBPort     = "db.port"
	cfgKeyDBName     = "db.name"
	cfgKeyDBUser     = "db.user"
	cfgKeyDBPassword = "db.password"
	cfgKeyDBSSLMode  = "db.sslmode"
	cfgKeyDBPath     = "db.path"

	cfgKeySourceBaseURL = "source.base_url"
	cfgKeySourceToken   = "source.token"
	cfgKeySourceBase    = "source.base"

	cfgKeyActionsTable = "source.actions_table"
	cfgKeyLeadsTable   = "source.leads_table"
	cfgKeyUsersTable   = "source.users_table"

	cfgKeyInputDir  = "input_dir"
	cfgKeyOutputDir = "output_dir"
	cfgKeyLogMode   = "log_mode"
)

// Config holds everything a pipeline run needs: the relational store
// coordinates, the tabular source API, and the local directories.
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	DBPath     string

	SourceBaseURL string
	SourceToken   string
	SourceBase    string

	// Per-entity table identifiers within the source base.
	ActionsTable string
	LeadsTable   string
	UsersTable   string

	InputDir  string
	OutputDir string
	LogMode   string
}

// Load builds a Config from the environment. When envFile is non-empty the
// file must exist; when empty, a ./.env is loaded if present.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(cfgKeyDBDriver, types.DriverSQLite)
	v.SetDefault(cfgKeyDBHost, "localhost")
	v.SetDefault(cfgKeyDBPort, 5432)
	v.SetDefault(cfgKeyDBSSLMode, "require")
	v.SetDefault(cfgKeyDBPath, "plansync.db")
	v.SetDefault(cfgKeyInputDir, "data/in")
	v.SetDefault(cfgKeyOutputDir, "data/out")
	v.SetDefault(cfgKeyLogMode, "development")

	return Config{
		DBDriver:   v.GetString(cfgKeyDBDriver),
		DBHost:     v.GetString(cfgKeyDBHost),
		DBPort:     v.GetInt(cfgKeyDBPort),
		DBName:     v.GetString(cfgKeyDBName),
		DBUser:     v.GetString(cfgKeyDBUser),
		DBPassword: v.GetString(cfgKeyDBPassword),
		DBSSLMode:  v.GetString(cfgKeyDBSSLMode),
		DBPath:     v.GetString(cfgKeyDBPath),

		SourceBaseURL: v.GetString(cfgKeySourceBaseURL),
		SourceToken:   v.GetString(cfgKeySourceToken),
		SourceBase:    v.GetString(cfgKeySourceBase),

		ActionsTable: v.GetString(cfgKeyActionsTable),
		LeadsTable:   v.GetString(cfgKeyLeadsTable),
		UsersTable:   v.GetString(cfgKeyUsersTable),

		InputDir:  v.GetString(cfgKeyInputDir),
		OutputDir: v.GetString(cfgKeyOutputDir),
		LogMode:   v.GetString(cfgKeyLogMode),
	}, nil
}

// ValidateStore checks the values the relational store needs for the
// configured driver.
func (c Config) ValidateStore() error {
	switch c.DBDriver {
	case types.DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: PLANSYNC_DB_PATH", types.ErrMissingConfig)
		}
	case types.DriverPostgres:
		var missing []string
		if c.DBHost == "" {
			missing = append(missing, "PLANSYNC_DB_HOST")
		}
		if c.DBName == "" {
			missing = append(missing, "PLANSYNC_DB_NAME")
		}
		if c.DBUser == "" {
			missing = append(missing, "PLANSYNC_DB_USER")
		}
		if c.DBPassword == "" {
			missing = append(missing, "PLANSYNC_DB_PASSWORD")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", types.ErrMissingConfig, strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownDriver, c.DBDriver)
	}
	return nil
}

// ValidateSource checks the values the tabular source API client needs.
func (c Config) ValidateSource() error {
	var missing []string
	if c.SourceBaseURL == "" {
		missing = append(missing, "PLANSYNC_SOURCE_BASE_URL")
	}
	if c.SourceToken == "" {
		missing = append(missing, "PLANSYNC_SOURCE_TOKEN")
	}
	if c.SourceBase == "" {
		missing = append(missing, "PLANSYNC_SOURCE_BASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", types.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (c Config) DSN() (string, error) {
	switch c.DBDriver {
	case types.DriverSQLite:
		return c.DBPath, nil
	case types.DriverPostgres:
		return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode), nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownDriver, c.DBDriver)
	}
}
