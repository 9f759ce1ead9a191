package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/reel-studio/internal/logging"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously check renders that are still processing",
	Long:  `Runs the render watcher: every interval, each generation in the processing state is checked once.`,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Sweep interval (defaults to TRACKER_INTERVAL or 10s)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openDB(ctx, true)
	if err != nil {
		return err
	}
	checker, err := a.tracker(ctx, database)
	if err != nil {
		return err
	}

	interval := a.cfg.Tracker.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}
	err = tracker.NewWatcher(checker, database, interval, logging.Component(a.logger, "watcher")).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
