package pipeline

import (
	"context"

	"github.com/fieldline-io/plansync/internal/store"
	"github.com/fieldline-io/plansync/internal/tabular"
	"github.com/fieldline-io/plansync/internal/validate"
	"github.com/fieldline-io/plansync/pkg/types"
)

var (
	userSpec = store.UpsertSpec{
		Table:      "users",
		KeyColumns: []string{"email"},
		Columns:    []string{"email", "full_name", "entity", "status", "role"},
	}

	// user_leads reconciled from the user side: the user row carries its
	// lead positions, so a refreshed user replaces its own link set.
	userLeadLinks = store.LinkSpec{
		Table:        "user_leads",
		OwnerColumns: []string{"user_email"},
		RefColumn:    "lead_name",
	}
)

// ParseUsers validates and normalizes the raw users table. Emails are the
// natural key and are lowercased; lead_positions is a delimiter-joined list
// of lead names the user holds.
func ParseUsers(t *tabular.Table) ([]types.User, error) {
	if err := validate.Run(t,
		validate.Required("email"),
		validate.UniqueKey("email"),
	); err != nil {
		return nil, err
	}

	users := make([]types.User, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		users = append(users, types.User{
			Email:     types.NormalizeEmail(cellString(t.Value(r, "email"))),
			FullName:  cellPtr(t.Value(r, "full_name")),
			Entity:    cellPtr(t.Value(r, "entity")),
			Status:    cellPtr(t.Value(r, "user_status")),
			Role:      cellPtr(t.Value(r, "user_role")),
			LeadNames: cellList(t.Value(r, "lead_positions")),
		})
	}
	return users, nil
}

// SyncUsers upserts the user rows, derives lead rows from the users' lead
// positions, and reconciles each user's lead links. A derived lead takes the
// entity of the first user naming it.
func SyncUsers(ctx context.Context, env Env, users []types.User) (*store.Report, error) {
	report := store.NewReport()
	report.Fetched = len(users)

	if env.DryRun {
		env.Log.Info("dry run: users batch computed", "users", len(users))
		return report, nil
	}

	err := env.Store.WithinTx(ctx, func(tx *store.Tx) error {
		rows := make([]map[string]any, 0, len(users))
		leadEntity := map[string]*string{}
		var leadOrder []string
		var links []store.Link
		for _, u := range users {
			rows = append(rows, map[string]any{
				"email":     u.Email,
				"full_name": u.FullName,
				"entity":    u.Entity,
				"status":    u.Status,
				"role":      u.Role,
			})
			for _, name := range u.LeadNames {
				if _, ok := leadEntity[name]; !ok {
					leadEntity[name] = u.Entity
					leadOrder = append(leadOrder, name)
				}
				links = append(links, store.Link{Owner: []any{u.Email}, Ref: name})
			}
		}
		n, err := tx.UpsertRows(ctx, userSpec, rows)
		if err != nil {
			return err
		}
		report.AddUpserted(userSpec.Table, n)

		leadRows := make([]map[string]any, 0, len(leadOrder))
		for _, name := range leadOrder {
			leadRows = append(leadRows, map[string]any{"name": name, "entity": leadEntity[name]})
		}
		if n, err = tx.UpsertRows(ctx, leadSpec, leadRows); err != nil {
			return err
		}
		report.AddUpserted(leadSpec.Table, n)

		leads, err := tx.KeySnapshot(ctx, "leads", "name")
		if err != nil {
			return err
		}
		accepted, missing := store.FilterLinks(links, leads)
		for _, m := range missing {
			env.Log.Warn("dropping user-lead links for unknown lead",
				"ref", m.Ref, "count", m.Count)
			report.AddRejected(userLeadLinks.Table, m.Count)
		}
		if n, err = tx.ReconcileLinks(ctx, userLeadLinks, accepted); err != nil {
			return err
		}
		report.AddLinks(userLeadLinks.Table, n)
		return nil
	})
	return report, err
}
