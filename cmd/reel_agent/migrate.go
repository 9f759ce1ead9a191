package main

import (
	"fmt"
	"os"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/spf13/cobra"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	Long:  `Applies every embedded SQL migration that has not run yet against DATABASE_URL.`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List embedded migrations without connecting")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migrateList {
		names, err := db.Migrations()
		if err != nil {
			return err
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	ctx := cmd.Context()
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openDB(ctx, true)
	if err != nil {
		return err
	}
	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "Schema is up to date")
		return nil
	}
	for _, name := range applied {
		_, _ = fmt.Fprintf(os.Stdout, "Applied %s\n", name)
	}
	return nil
}
