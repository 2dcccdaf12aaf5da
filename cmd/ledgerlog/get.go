package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a single record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0])
		},
	}
}

func runGet(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		rec, err := d.Handler.GetRecord(ctx, id)
		if err != nil {
			return fmt.Errorf("getting record: %w", err)
		}

		displayRecord(rec)
		return nil
	})
}

func displayRecord(rec entities.LogRecord) {
	fmt.Printf("ID: %s\n", rec.ID)
	fmt.Printf("  %s %s %s  (%s)\n", rec.UserID, rec.Action, rec.Resource, rec.Timestamp.Format(time.RFC3339))
	if rec.Description != "" {
		fmt.Printf("  Description: %s\n", rec.Description)
	}
	if len(rec.Metadata) > 0 {
		if data, err := json.Marshal(rec.Metadata); err == nil {
			fmt.Printf("  Metadata: %s\n", data)
		}
	}
	if rec.Source != "" {
		fmt.Printf("  Source: %s\n", rec.Source)
	}
	fmt.Println()
}
