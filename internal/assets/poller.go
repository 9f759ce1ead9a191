package assets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/providers/visual"
	"github.com/rs/zerolog"
)

// Poll budget for queued visual jobs.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 60
)

// Poller waits for a queued visual job to finish.
type Poller struct {
	provider    visual.Provider
	interval    time.Duration
	maxAttempts int
	logger      zerolog.Logger
}

// NewPoller creates a poller. Non-positive values fall back to the defaults.
func NewPoller(provider visual.Provider, interval time.Duration, maxAttempts int, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{provider: provider, interval: interval, maxAttempts: maxAttempts, logger: logger}
}

// Wait polls the job's status until it completes, fails, or the attempt budget runs out.
// It returns a non-empty media URL or an error, never both empty.
func (p *Poller) Wait(ctx context.Context, scene int, requestID string) (string, error) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}

		report, err := p.provider.Status(ctx, requestID)
		if err != nil {
			return "", fmt.Errorf("scene %d: %w", scene, err)
		}

		p.logger.Debug().
			Int("scene", scene).
			Str("request_id", requestID).
			Int("attempt", attempt).
			Str("status", string(report.Status)).
			Msg("visual job status")

		switch report.Status {
		case visual.StatusCompleted:
			mediaURL, err := p.provider.Result(ctx, requestID)
			if err != nil {
				return "", &GenerationFailedError{Scene: scene, RequestID: requestID, Message: "result unavailable", Cause: err}
			}
			if strings.TrimSpace(mediaURL) == "" {
				return "", &GenerationFailedError{Scene: scene, RequestID: requestID, Message: "completed without media"}
			}
			return mediaURL, nil
		case visual.StatusFailed:
			msg := report.Error
			if msg == "" {
				msg = "provider reported failure"
			}
			return "", &GenerationFailedError{Scene: scene, RequestID: requestID, Message: msg}
		}

		timer.Reset(p.interval)
	}

	return "", &GenerationTimeoutError{Scene: scene, RequestID: requestID, Attempts: p.maxAttempts}
}
