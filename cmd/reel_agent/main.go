// Package main provides the reel_agent CLI: the HTTP API server, one-shot generation runs
// and render tracking for reel-studio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "reel_agent",
	Short: "Reel Studio short-video generation agent",
	Long: `Reel Studio turns a short text idea into a finished short-form video: an LLM writes a
scene-by-scene script, each scene gets a generated visual and narration, the timeline is
submitted to the render service, and render status is tracked until the video is ready.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed progress")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
