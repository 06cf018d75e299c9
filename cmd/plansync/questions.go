// Questions command: import question columns from the tracking workbook.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
	"github.com/fieldline-io/plansync/internal/source"
)

var (
	questionsSheet        string
	questionsHeaderRow    int
	questionsActionColumn string
	questionsBodyColumn   string
	questionsAssumedYear  int
)

var questionsCmd = &cobra.Command{
	Use:   "questions <workbook.xlsx>",
	Short: "Import questions from the tracking workbook",
	Long: `Questions imports a free-text question column the same way notes
are imported, and additionally links each question to its action's final
milestone when one exists. An already-present question without a link gets
the link backfilled instead of a duplicate row.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestions,
}

func init() {
	questionsCmd.Flags().StringVar(&questionsSheet, "sheet", "", "sheet name (default: first sheet)")
	questionsCmd.Flags().IntVar(&questionsHeaderRow, "header-row", 4, "zero-based header row index")
	questionsCmd.Flags().StringVar(&questionsActionColumn, "action-column", "Action No", "column holding the action number")
	questionsCmd.Flags().StringVar(&questionsBodyColumn, "column", "", "question column to import (required)")
	questionsCmd.Flags().IntVar(&questionsAssumedYear, "assumed-year", 2025, "year assumed for day+month headers")
	_ = questionsCmd.MarkFlagRequired("column")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := source.ReadSheet(resolveInput(args[0]), questionsSheet, questionsHeaderRow)
	if err != nil {
		return err
	}

	src := pipeline.NoteSource{
		ActionColumn: questionsActionColumn,
		BodyColumn:   questionsBodyColumn,
		AssumedYear:  questionsAssumedYear,
	}
	details := pipeline.ParseQuestions(t, src)
	log.Info("questions parsed", "rows", t.Len(), "questions", len(details))

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SyncQuestions(ctx, pipelineEnv(s), src.ScopeHeaders(), details)
	if err != nil {
		return err
	}
	logReport("questions run complete", report)
	return nil
}
