package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var (
		description string
		metadata    string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "log <user> <action> <resource>",
		Short: "Record a new event",
		Long: "Appends an event record to the ledger. Metadata may be a JSON object,\n" +
			"a request line like \"GET /api/users\", or any free text - it is stored\n" +
			"as given and normalized on read.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, args[0], args[1], args[2], description, metadata, force)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Free-text description")
	cmd.Flags().StringVarP(&metadata, "meta", "m", "", "Metadata (JSON object, request line, or free text)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Write even if the same action/resource was emitted within the debounce window")

	return cmd
}

func runLog(cmd *cobra.Command, userID, action, resource, description, metadata string, force bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		var meta any
		if metadata != "" {
			meta = metadata
		}

		create := d.Handler.CreateRecord
		if force {
			create = d.Handler.CreateRecordForced
		}

		result, err := create(ctx, userID, action, resource, description, meta)
		if err != nil {
			return fmt.Errorf("creating record: %w", err)
		}

		if result.Suppressed {
			fmt.Println("Suppressed: same action/resource emitted too recently.")
			return nil
		}

		fmt.Printf("Created record %s\n", result.ID)
		return nil
	})
}
