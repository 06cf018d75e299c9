// Shared helpers for plansync CLI commands.
package main

import (
	"context"
	"fmt"

	"github.com/fieldline-io/plansync/internal/paths"
	"github.com/fieldline-io/plansync/internal/pipeline"
	"github.com/fieldline-io/plansync/internal/source"
	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
)

// openStore validates the store configuration, connects, and applies the
// schema. The caller must close the returned store.
func openStore(ctx context.Context) (*store.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// pipelineEnv bundles the run dependencies for a pipeline call.
func pipelineEnv(s *store.Store) pipeline.Env {
	return pipeline.Env{
		Store: s,
		Log:   log,
		Options: pipeline.Options{
			DryRun:      dryRun,
			FullRefresh: fullRefresh,
		},
	}
}

// loadSourceTable reads one entity table: from a records-JSON file when the
// command got a path argument, otherwise from the tabular source API using
// the configured table ID.
func loadSourceTable(ctx context.Context, args []string, tableID string) (*tabular.Table, error) {
	if len(args) > 0 {
		return tabular.ReadRecordsJSON(resolveInput(args[0]))
	}
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	if tableID == "" {
		return nil, fmt.Errorf("no source table configured and no input file given")
	}
	client := source.NewClient(cfg.SourceBaseURL, cfg.SourceToken, cfg.SourceBase)
	records, err := client.FetchRecords(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return tabular.FromAnyRecords(records), nil
}

// resolveInput joins relative paths onto the configured input directory.
func resolveInput(path string) string {
	return paths.In(cfg.InputDir, path)
}

// logReport emits the run summary.
func logReport(msg string, report *store.Report) {
	log.Info(msg, report.Fields()...)
}
