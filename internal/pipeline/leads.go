package pipeline

import (
	"context"

	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/internal/validate"
	"github.com/fieldline-io/plansync/pkg/types"
)

var (
	leadSpec = store.UpsertSpec{
		Table:      "leads",
		KeyColumns: []string{"name"},
		Columns:    []string{"name", "entity"},
	}

	// user_leads reconciled from the lead side: the lead row carries its
	// member emails, so a refreshed lead replaces its own link set.
	leadUserLinks = store.LinkSpec{
		Table:        "user_leads",
		OwnerColumns: []string{"lead_name"},
		RefColumn:    "user_email",
	}
)

// ParseLeads validates and normalizes the raw leads table. The user_email
// column joins member emails with commas; tokens are lowercased here so the
// link refs compare against the users snapshot.
func ParseLeads(t *tabular.Table, expectedRows int) ([]types.Lead, error) {
	checks := []validate.Check{
		validate.Required("name"),
		validate.UniqueKey("name"),
	}
	if expectedRows > 0 {
		checks = append(checks, validate.RowCount(expectedRows))
	}
	if err := validate.Run(t, checks...); err != nil {
		return nil, err
	}

	leads := make([]types.Lead, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		leads = append(leads, types.Lead{
			Name:       cellString(t.Value(r, "name")),
			Entity:     cellPtr(t.Value(r, "entity")),
			UserEmails: normalizeEmails(cellList(t.Value(r, "user_email"))),
		})
	}
	return leads, nil
}

// SyncLeads upserts the lead rows and reconciles each lead's user links,
// dropping links whose email is not an approved user.
func SyncLeads(ctx context.Context, env Env, leads []types.Lead) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(leads)

	if env.DryRun {
		env.Log.Info("dry run: leads batch computed", "leads", len(leads))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		rows := make([]map[string]any, 0, len(leads))
		var links []store.Link
		for _, l := range leads {
			rows = append(rows, map[string]any{"name": l.Name, "entity": l.Entity})
			for _, email := range l.UserEmails {
				links = append(links, store.Link{Owner: []any{l.Name}, Ref: email})
			}
		}
		n, err := tx.UpsertRows(ctx, leadSpec, rows)
		if err != nil {
			return err
		}
		report.AddUpserted(leadSpec.Table, n)

		users, err := tx.KeySnapshot(ctx, "users", "email")
		if err != nil {
			return err
		}
		accepted, missing := store.FilterLinks(links, users)
		for _, m := range missing {
			env.Log.Warn("dropping user-lead links for unknown user",
				"ref", m.Ref, "count", m.Count)
			report.AddRejected(leadUserLinks.Table, m.Count)
		}
		if n, err = tx.ReconcileLinks(ctx, leadUserLinks, accepted); err != nil {
			return err
		}
		report.AddLinks(leadUserLinks.Table, n)
		return nil
	})
	return report, err
}
