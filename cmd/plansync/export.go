// Export command: write the dashboard payload and its snapshots.
package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/paths"
	"github.com/fieldline-io/plansync/internal/pipeline"
	"github.com/fieldline-io/plansync/internal/tabular"
)

var (
	exportOutputDir    string
	exportWorkstreams  int
	exportWorkPackages int
	exportActions      int
	exportLeads        int
)

var exportCmd = &cobra.Command{
	Use:   "export <records.json>",
	Short: "Write the dashboard payload, snapshots, and freshness stamp",
	Long: `Export cleans the raw dashboard extract (ISO dates, list arrays,
booleans, nulls), flags subactions, sorts by work package and action number,
checks the entity counts against the dashboard cards, and writes actions.json,
actions.csv, actions_snapshot.json, and last-updated.json to the output dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	defaults := pipeline.DefaultExpectedCounts
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "", "directory for the exported files (defaults to the configured output dir)")
	exportCmd.Flags().IntVar(&exportWorkstreams, "expect-workstreams", defaults.Workstreams, "expected workstream count (0 disables)")
	exportCmd.Flags().IntVar(&exportWorkPackages, "expect-work-packages", defaults.WorkPackages, "expected work package count (0 disables)")
	exportCmd.Flags().IntVar(&exportActions, "expect-actions", defaults.Actions, "expected action count excluding subactions (0 disables)")
	exportCmd.Flags().IntVar(&exportLeads, "expect-leads", defaults.Leads, "expected lead count (0 disables)")
}

func runExport(cmd *cobra.Command, args []string) error {
	t, err := tabular.ReadRecordsJSON(resolveInput(args[0]))
	if err != nil {
		return err
	}

	d, err := pipeline.BuildDashboard(t, pipeline.ExpectedCounts{
		Workstreams:  exportWorkstreams,
		WorkPackages: exportWorkPackages,
		Actions:      exportActions,
		Leads:        exportLeads,
	})
	if err != nil {
		return err
	}

	outDir, err := paths.Resolve(exportOutputDir, cfg.OutputDir, paths.DefaultOutputDirName)
	if err != nil {
		return err
	}
	env := pipeline.Env{Log: log, Options: pipeline.Options{DryRun: dryRun, FullRefresh: fullRefresh}}
	return pipeline.WriteDashboard(env, d, outDir, runID, time.Now())
}
