package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/rs/zerolog"
)

// DefaultInterval is the pause between watcher sweeps.
const DefaultInterval = 10 * time.Second

// PendingLister lists records that are still rendering.
type PendingLister interface {
	ListProcessingGenerations(ctx context.Context, limit int) ([]db.Generation, error)
}

// Watcher periodically checks every processing record.
type Watcher struct {
	tracker  *Tracker
	pending  PendingLister
	interval time.Duration
	logger   zerolog.Logger
}

// NewWatcher creates a watcher sweeping every interval.
func NewWatcher(tracker *Tracker, pending PendingLister, interval time.Duration, logger zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{tracker: tracker, pending: pending, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("render watcher started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("render watcher stopped")
			return ctx.Err()
		case <-timer.C:
		}

		w.Sweep(ctx)
		timer.Reset(w.interval)
	}
}

// Sweep checks each processing record once, sequentially. It returns how many reached a terminal state.
func (w *Watcher) Sweep(ctx context.Context) int {
	records, err := w.pending.ListProcessingGenerations(ctx, 0)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to list processing generations")
		return 0
	}
	if len(records) == 0 {
		return 0
	}

	finished := 0
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		res, err := w.tracker.Check(ctx, record.RenderID)
		if err != nil {
			if errors.Is(err, ErrLeaseHeld) {
				continue
			}
			w.logger.Error().Err(err).Str("render_id", record.RenderID).Msg("render check failed")
			continue
		}
		if res.Updated {
			finished++
		}
	}

	w.logger.Debug().Int("checked", len(records)).Int("finished", finished).Msg("watcher sweep done")
	return finished
}
