package main

import (
	"os"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/observability"
	"github.com/spf13/cobra"
)

var generationsLimit int

var generationsCmd = &cobra.Command{
	Use:   "generations",
	Short: "List recent generations",
	RunE:  runGenerations,
}

func init() {
	generationsCmd.Flags().IntVar(&generationsLimit, "limit", 20, "Number of records to show")
	rootCmd.AddCommand(generationsCmd)
}

func runGenerations(cmd *cobra.Command, _ []string) error {
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
	gens, err := database.ListGenerations(ctx, db.ListOptions{Limit: generationsLimit})
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintGenerations(gens)
	return nil
}
