package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auditra/ledgerlog/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger and index in the current directory",
		Long:  "Creates the .ledgerlog config, the ledger schema, and the index collection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, seed)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Seed the ledger with a base record")

	return cmd
}

func runInit(cmd *cobra.Command, seed bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if !config.Exists(cwd) {
		if err := config.Write(cwd, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))
	}

	return withInternalDeps(ctx, func(d *internalDeps) error {
		// Schema is ensured by the dependency wiring; the collection is
		// best-effort since the index may not be running yet.
		if err := d.index.EnsureCollection(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: index collection not ready: %v\n", err)
		}

		if seed {
			result, err := d.Handler.CreateRecord(ctx, "user1", "VISIT", "/home", "User visited home page", nil)
			if err != nil {
				return fmt.Errorf("seeding base record: %w", err)
			}
			fmt.Printf("Seeded record %s\n", result.ID)
		}

		fmt.Println("Ledger initialized.")
		return nil
	})
}
