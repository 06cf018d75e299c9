// Actions command: load the actions tracker table into the store.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
)

var actionsExpectRows int

var actionsCmd = &cobra.Command{
	Use:   "actions [records.json]",
	Short: "Load actions, work packages, and workstreams into the store",
	Long: `Actions fetches the tracker's actions table (or reads a records-JSON
file), validates it, flags subactions, and upserts workstreams, work
packages, actions, and their link tables in one transaction.

Example:
  plansync actions
  plansync actions actions_raw.json --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runActions,
}

func init() {
	actionsCmd.Flags().IntVar(&actionsExpectRows, "expect-rows", 0, "fail unless the source has exactly this many rows (0 disables)")
}

func runActions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := loadSourceTable(ctx, args, cfg.ActionsTable)
	if err != nil {
		return err
	}
	log.Info("actions table loaded", "rows", t.Len())

	batch, err := pipeline.ParseActions(t, actionsExpectRows)
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SyncActions(ctx, pipelineEnv(s), batch)
	if err != nil {
		return err
	}
	logReport("actions run complete", report)
	return nil
}
