package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/observability"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/spf13/cobra"
)

var analyzeStyleCmd = &cobra.Command{
	Use:   "analyze-style",
	Short: "Infer a visual style profile from a name and description",
	Long: `Asks the LLM to turn a style name and description into prompt directives (suffix, lighting,
camera, palette, mood). With --save the result is stored as a custom style usable via --style <id>.`,
	RunE: runAnalyzeStyle,
}

var (
	styleName         string
	styleDescription  string
	styleHasReference bool
	styleSave         bool
	styleJSON         bool
)

func init() {
	analyzeStyleCmd.Flags().StringVarP(&styleName, "name", "n", "", "Style name (required)")
	analyzeStyleCmd.Flags().StringVar(&styleDescription, "description", "", "Free-text style description")
	analyzeStyleCmd.Flags().BoolVar(&styleHasReference, "has-reference", false, "A reference video exists for this style")
	analyzeStyleCmd.Flags().BoolVar(&styleSave, "save", false, "Store the analyzed style (requires DATABASE_URL)")
	analyzeStyleCmd.Flags().BoolVar(&styleJSON, "json", false, "Print the config as JSON")
	_ = analyzeStyleCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(analyzeStyleCmd)
}

func runAnalyzeStyle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := a.llmClient(ctx)
	if err != nil {
		return err
	}

	cfg, err := styles.NewAnalyzer(client).Analyze(ctx, styles.AnalyzeRequest{
		Name:         styleName,
		Description:  styleDescription,
		HasReference: styleHasReference,
	})
	if err != nil {
		return err
	}

	if styleJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(os.Stdout).PrintStyleConfig(styleName, cfg)
	}

	if !styleSave {
		return nil
	}
	database, err := a.openDB(ctx, true)
	if err != nil {
		return err
	}
	style, err := database.CreateStyle(ctx, &db.StyleInput{
		Name:        styleName,
		Description: styleDescription,
		Config:      *cfg,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Saved style %s (use --style %s)\n", style.Name, style.ID)
	return nil
}
