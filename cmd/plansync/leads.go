// Leads command: load the leads table and its user links into the store.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
)

var leadsExpectRows int

var leadsCmd = &cobra.Command{
	Use:   "leads [records.json]",
	Short: "Load leads and their user links into the store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLeads,
}

func init() {
	leadsCmd.Flags().IntVar(&leadsExpectRows, "expect-rows", 0, "fail unless the source has exactly this many rows (0 disables)")
}

func runLeads(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := loadSourceTable(ctx, args, cfg.LeadsTable)
	if err != nil {
		return err
	}
	log.Info("leads table loaded", "rows", t.Len())

	leads, err := pipeline.ParseLeads(t, leadsExpectRows)
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SyncLeads(ctx, pipelineEnv(s), leads)
	if err != nil {
		return err
	}
	logReport("leads run complete", report)
	return nil
}
