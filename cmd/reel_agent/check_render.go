package main

import (
	"os"

	"github.com/jonathan/reel-studio/internal/observability"
	"github.com/spf13/cobra"
)

var checkRenderCmd = &cobra.Command{
	Use:   "check-render <render-id>",
	Short: "Check one render and record its outcome",
	Long: `Queries the render service once. A finished render marks its generation completed with the
video URL; a failed render marks it failed. Without DATABASE_URL only the render state is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckRender,
}

func init() {
	rootCmd.AddCommand(checkRenderCmd)
}

func runCheckRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openDB(ctx, false)
	if err != nil {
		return err
	}
	checker, err := a.tracker(ctx, database)
	if err != nil {
		return err
	}

	result, err := checker.Check(ctx, args[0])
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintRenderCheck(result)
	return nil
}
