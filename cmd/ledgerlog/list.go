package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

func newListCmd() *cobra.Command {
	var (
		user     string
		action   string
		resource string
		from     string
		to       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Long: "Lists records with optional filtering. Without filters every visible\n" +
			"record is enumerated, falling back to a sweep of known actions and\n" +
			"resources when neither store supports a full scan.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, user, action, resource, from, to)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Filter by user id")
	cmd.Flags().StringVarP(&action, "action", "a", "", "Filter by action")
	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Filter by resource")
	cmd.Flags().StringVar(&from, "from", "", "Range start (RFC3339, requires --to)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (RFC3339, requires --from)")

	return cmd
}

func runList(cmd *cobra.Command, user, action, resource, from, to string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		var recs []entities.LogRecord
		var err error

		switch {
		case user != "":
			recs = d.Handler.ListByUser(ctx, user)
		case action != "":
			recs = d.Handler.ListByAction(ctx, action)
		case resource != "":
			recs = d.Handler.ListByResource(ctx, resource)
		case from != "" || to != "":
			recs, err = d.Handler.ListByTimeRange(ctx, from, to)
			if err != nil {
				return fmt.Errorf("listing records: %w", err)
			}
		default:
			recs = d.Handler.ListAll(ctx)
		}

		if len(recs) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		fmt.Printf("Showing %d records:\n\n", len(recs))
		for _, rec := range recs {
			displayRecord(rec)
		}
		return nil
	})
}
