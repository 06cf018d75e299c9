// Milestones commands: seed from the processed actions table, or merge the
// tracking workbook into the existing milestone set.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
	"github.com/fieldline-io/plansync/internal/source"
	"github.com/fieldline-io/plansync/internal/tabular"
)

var (
	milestonesSheet     string
	milestonesHeaderRow int
)

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Manage action milestones",
}

var milestonesSeedCmd = &cobra.Command{
	Use:   "seed <records.json>",
	Short: "Replace seeded milestones from the processed actions table",
	Long: `Seed flattens the wide milestone columns of the processed actions
table into one milestone row per kind and reloads them. Milestones entered by
hand through the dashboard are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runMilestonesSeed,
}

var milestonesMergeCmd = &cobra.Command{
	Use:   "merge <workbook.xlsx>",
	Short: "Merge the tracking workbook into existing milestones",
	Long: `Merge updates description and deadline for milestone kinds already
present (keeping row identity and review status), inserts new kinds as
drafts, applies the "Needs Attention" review status, and renumbers serials.

Example:
  plansync milestones merge "Action Plan.xlsx" --sheet "Action Tracking"`,
	Args: cobra.ExactArgs(1),
	RunE: runMilestonesMerge,
}

func init() {
	milestonesMergeCmd.Flags().StringVar(&milestonesSheet, "sheet", "", "sheet name (default: first sheet)")
	milestonesMergeCmd.Flags().IntVar(&milestonesHeaderRow, "header-row", 0, "zero-based header row index")

	milestonesCmd.AddCommand(milestonesSeedCmd)
	milestonesCmd.AddCommand(milestonesMergeCmd)
}

func runMilestonesSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := tabular.ReadRecordsJSON(resolveInput(args[0]))
	if err != nil {
		return err
	}

	milestones := pipeline.ExtractSeedMilestones(t)
	log.Info("seed milestones extracted", "rows", t.Len(), "milestones", len(milestones))

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SeedMilestones(ctx, pipelineEnv(s), milestones)
	if err != nil {
		return err
	}
	logReport("milestone seed complete", report)
	return nil
}

func runMilestonesMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := source.ReadSheet(resolveInput(args[0]), milestonesSheet, milestonesHeaderRow)
	if err != nil {
		return err
	}

	batch := pipeline.ParseWorkbookMilestones(t)
	log.Info("workbook milestones parsed", "rows", t.Len(), "actions", len(batch))

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.MergeWorkbookMilestones(ctx, pipelineEnv(s), batch)
	if err != nil {
		return err
	}
	logReport("milestone merge complete", report)
	return nil
}
