// Notes command: import free-text note columns from the tracking workbook.
package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldline-io/plansync/internal/pipeline"
	"github.com/fieldline-io/plansync/internal/source"
)

var (
	notesSheet          string
	notesHeaderRow      int
	notesActionColumn   string
	notesBodyColumn     string
	notesAssumedYear    int
	notesMeetingHeaders bool
)

var notesCmd = &cobra.Command{
	Use:   "notes <workbook.xlsx>",
	Short: "Import free-text notes from the tracking workbook",
	Long: `Notes splits a free-text column into dated entries (blank lines
separate events, a leading "21 Jan" line dates one) and inserts them
idempotently. With --full-refresh the import's own header scope is cleared
first; notes typed in by hand always survive.

Example:
  plansync notes "Action Plan Tracker.xlsx" --column "Notes from Task Force" --meeting-headers`,
	Args: cobra.ExactArgs(1),
	RunE: runNotes,
}

func init() {
	notesCmd.Flags().StringVar(&notesSheet, "sheet", "", "sheet name (default: first sheet)")
	notesCmd.Flags().IntVar(&notesHeaderRow, "header-row", 4, "zero-based header row index")
	notesCmd.Flags().StringVar(&notesActionColumn, "action-column", "Action No", "column holding the action number")
	notesCmd.Flags().StringVar(&notesBodyColumn, "column", "", "free-text notes column to import (required)")
	notesCmd.Flags().IntVar(&notesAssumedYear, "assumed-year", 2025, "year assumed for day+month note headers")
	notesCmd.Flags().BoolVar(&notesMeetingHeaders, "meeting-headers", false, "attribute dated notes to committees via the meeting schedule")
	_ = notesCmd.MarkFlagRequired("column")
}

func runNotes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := source.ReadSheet(resolveInput(args[0]), notesSheet, notesHeaderRow)
	if err != nil {
		return err
	}

	src := pipeline.NoteSource{
		ActionColumn:      notesActionColumn,
		BodyColumn:        notesBodyColumn,
		AssumedYear:       notesAssumedYear,
		UseMeetingHeaders: notesMeetingHeaders,
	}
	details := pipeline.ParseNotes(t, src)
	log.Info("notes parsed", "rows", t.Len(), "notes", len(details))

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.SyncNotes(ctx, pipelineEnv(s), src.ScopeHeaders(), details)
	if err != nil {
		return err
	}
	logReport("notes run complete", report)
	return nil
}
