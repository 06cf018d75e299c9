package pipeline

import (
	"context"

	"github.com/fieldline-io/plansync/internal/normalize"
	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/pkg/types"
)

var questionDetailSpec = store.DetailSpec{
	Table:            "action_questions",
	DateColumn:       "question_date",
	BodyColumn:       "body",
	AnnotationColumn: "milestone_id",
}

// ParseQuestions splits one questions column into dated detail rows, the
// same segment and date-header treatment as notes. Every question gets the
// Unspecified header; the milestone link is resolved at load time.
func ParseQuestions(t *tabular.Table, src NoteSource) []store.Detail {
	var details []store.Detail
	for r := 0; r < t.Len(); r++ {
		id, ok := cellInt(t.Value(r, src.ActionColumn))
		if !ok {
			continue
		}
		cell := cellString(t.Value(r, src.BodyColumn))
		if cell == "" {
			continue
		}
		for _, seg := range normalize.SplitSegments(cell) {
			date, body := normalize.DateHeader(seg, src.AssumedYear)
			if body == "" {
				continue
			}
			header := HeaderUnspecified
			details = append(details, store.Detail{
				ActionID: id,
				Header:   &header,
				Date:     date,
				Body:     body,
			})
		}
	}
	return details
}

// SyncQuestions loads parsed question details idempotently and links each to
// its action's final milestone when one exists. An already-present question
// without a link gets the link backfilled instead of a duplicate row.
func SyncQuestions(ctx context.Context, env Env, scopeHeaders []string, details []store.Detail) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(details)

	if env.DryRun {
		env.Log.Info("dry run: questions batch computed", "questions", len(details))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		finals := map[types.ActionKey]*int64{}
		for i := range details {
			key := types.ActionKey{ID: details[i].ActionID, SubID: details[i].ActionSubID}
			id, ok := finals[key]
			if !ok {
				var err error
				if id, err = tx.FinalMilestoneID(ctx, key); err != nil {
					return err
				}
				finals[key] = id
			}
			if id != nil {
				details[i].Annotation = id
			}
		}

		if env.FullRefresh {
			deleted, inserted, err := tx.ReplaceSeedDetails(ctx, questionDetailSpec, scopeHeaders, details)
			if err != nil {
				return err
			}
			report.Deleted = deleted
			report.Inserted = inserted
			return nil
		}
		for _, d := range details {
			ok, err := tx.InsertDetailIfAbsent(ctx, questionDetailSpec, d)
			if err != nil {
				return err
			}
			if ok {
				report.Inserted++
			} else {
				report.Skipped++
			}
		}
		return nil
	})
	return report, err
}
