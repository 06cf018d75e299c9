package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/fieldline-io/plansync/internal/normalize"
	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
)

// HeaderUnspecified marks detail rows whose import source has no committee
// attribution.
const HeaderUnspecified = "Unspecified"

var noteDetailSpec = store.DetailSpec{
	Table:      "action_notes",
	DateColumn: "note_date",
	BodyColumn: "body",
}

// MonthDay is a calendar day independent of year, used to match note dates
// against the committee meeting schedule.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MeetingHeaders is the committee meeting schedule: notes dated on a listed
// day get that committee as their header.
var MeetingHeaders = map[MonthDay]string{
	{time.December, 17}: "Task Force",
	{time.January, 7}:   "Task Force",
	{time.January, 14}:  "Task Force",
	{time.January, 21}:  "Task Force",
	{time.January, 23}:  "Steering Committee",
	{time.January, 28}:  "Task Force",
	{time.February, 5}:  "Task Force",
	{time.February, 12}: "Task Force",
	{time.February, 18}: "Task Force",
	{time.February, 23}: "Task Force",
	{time.February, 25}: "Steering Committee",
}

// NoteSource describes one free-text notes column of the tracking workbook.
type NoteSource struct {
	ActionColumn string
	BodyColumn   string
	// AssumedYear resolves "21 Jan" style headers, which carry no year.
	AssumedYear int
	// UseMeetingHeaders attributes dated segments to committees via the
	// meeting schedule. Off, every segment gets the Unspecified header.
	UseMeetingHeaders bool
}

// ScopeHeaders lists every header this source can stamp on a row: just
// Unspecified, plus the committees when the meeting schedule is in play. A
// full refresh clears exactly this set.
func (src NoteSource) ScopeHeaders() []string {
	headers := []string{HeaderUnspecified}
	if !src.UseMeetingHeaders {
		return headers
	}
	seen := map[string]struct{}{HeaderUnspecified: {}}
	for _, h := range MeetingHeaders {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			headers = append(headers, h)
		}
	}
	sort.Strings(headers[1:])
	return headers
}

func (src NoteSource) headerFor(d store.Detail) string {
	if !src.UseMeetingHeaders || !d.Date.Valid {
		return HeaderUnspecified
	}
	md := MonthDay{Month: d.Date.Time.Month(), Day: d.Date.Time.Day()}
	if h, ok := MeetingHeaders[md]; ok {
		return h
	}
	return HeaderUnspecified
}

// ParseNotes splits one notes column into dated detail rows: each cell
// splits on blank lines into segments, each segment's leading day+month
// header becomes the note date. Rows without a parseable action number and
// empty segments are dropped.
func ParseNotes(t *tabular.Table, src NoteSource) []store.Detail {
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
			d := store.Detail{ActionID: id, Date: date, Body: body}
			header := src.headerFor(d)
			d.Header = &header
			details = append(details, d)
		}
	}
	return details
}

// SyncNotes loads parsed note details idempotently: a note identical in
// action, header, date, and body never inserts twice, and notes naming
// unknown actions are skipped. With FullRefresh the seeded rows of every
// scope header are wiped first; notes typed in by hand always survive.
func SyncNotes(ctx context.Context, env Env, scopeHeaders []string, details []store.Detail) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(details)

	if env.DryRun {
		env.Log.Info("dry run: notes batch computed", "notes", len(details))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		if env.FullRefresh {
			deleted, inserted, err := tx.ReplaceSeedDetails(ctx, noteDetailSpec, scopeHeaders, details)
			if err != nil {
				return err
			}
			report.Deleted = deleted
			report.Inserted = inserted
			return nil
		}
		for _, d := range details {
			ok, err := tx.InsertDetailIfAbsent(ctx, noteDetailSpec, d)
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
