// Package store is the relational load engine. It speaks Postgres in
// production and SQLite for local runs and tests through the same SQL, so the
// engine is exercised end to end without a server. Loads are idempotent:
// entities upsert by natural key, links reconcile per owning key, details
// insert only when no matching row exists.
package store

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fieldline-io/plansync/pkg/types"
)

// Store owns the connection pool for one database. Construct with Open and
// release with Close; there is no package-level instance.
type Store struct {
	db     *sqlx.DB
	flavor sqlbuilder.Flavor
}

// Open connects to the database behind the given driver. Supported drivers
// are "postgres" (pgx) and "sqlite" (modernc).
func Open(driver, dsn string) (*Store, error) {
	var driverName string
	var flavor sqlbuilder.Flavor
	switch driver {
	case types.DriverPostgres:
		driverName = "pgx"
		flavor = sqlbuilder.PostgreSQL
	case types.DriverSQLite:
		driverName = "sqlite"
		flavor = sqlbuilder.SQLite
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownDriver, driver)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	return &Store{db: db, flavor: flavor}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return types.ErrNotAttached
	}
	return s.db.Close()
}

// EnsureSchema creates any missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.flavor) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Get runs a single-row query with ?-style placeholders, scanning into dest.
func (s *Store) Get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
}

// Select runs a multi-row query with ?-style placeholders, scanning into dest.
func (s *Store) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

// Tx is one open transaction. All engine operations run on a Tx so an entity
// batch commits or rolls back as a unit.
type Tx struct {
	tx     *sqlx.Tx
	flavor sqlbuilder.Flavor
}

// WithinTx runs fn inside a transaction. Any error rolls the whole batch
// back; a nil return commits.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&Tx{tx: tx, flavor: s.flavor}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rebind converts ?-style placeholders to the driver's form.
func (t *Tx) rebind(query string) string {
	return t.tx.Rebind(query)
}
