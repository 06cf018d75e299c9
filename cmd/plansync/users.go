// Users command: load approved users and their lead links into the store.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
)

var usersCmd = &cobra.Command{
	Use:   "users [records.json]",
	Short: "Load approved users, derived leads, and user-lead links",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUsers,
}

func runUsers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := loadSourceTable(ctx, args, cfg.UsersTable)
	if err != nil {
		return err
	}
	log.Info("users table loaded", "rows", t.Len())

	users, err := pipeline.ParseUsers(t)
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SyncUsers(ctx, pipelineEnv(s), users)
	if err != nil {
		return err
	}
	logReport("users run complete", report)
	return nil
}
