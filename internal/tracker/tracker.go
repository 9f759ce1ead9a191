// Package tracker reconciles generation records with the render service's job state.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/providers/render"
	"github.com/rs/zerolog"
)

// DefaultLeaseTTL bounds how long one replica holds a render.
const DefaultLeaseTTL = 30 * time.Second

// ErrLeaseHeld means another tracker is checking the same render.
var ErrLeaseHeld = errors.New("render is being checked by another tracker")

// StatusSource reads render job state.
type StatusSource interface {
	Status(ctx context.Context, renderID string) (*render.Report, error)
}

// GenerationStore reads and transitions generation records.
type GenerationStore interface {
	GetGenerationByRenderID(ctx context.Context, renderID string) (*db.Generation, error)
	CompleteGeneration(ctx context.Context, renderID, videoURL string) (*db.Generation, bool, error)
	FailGeneration(ctx context.Context, renderID, reason string) (*db.Generation, bool, error)
}

// NoStore has no records. Checks against it report the render service outcome only.
type NoStore struct{}

func (NoStore) GetGenerationByRenderID(context.Context, string) (*db.Generation, error) {
	return nil, nil
}

func (NoStore) CompleteGeneration(_ context.Context, renderID, _ string) (*db.Generation, bool, error) {
	return nil, false, fmt.Errorf("render %s: %w", renderID, db.ErrNotFound)
}

func (NoStore) FailGeneration(_ context.Context, renderID, _ string) (*db.Generation, bool, error) {
	return nil, false, fmt.Errorf("render %s: %w", renderID, db.ErrNotFound)
}

// Result is the outcome of one check.
type Result struct {
	RenderID     string         `json:"render_id"`
	Status       string         `json:"status"`
	RenderStatus render.Status  `json:"render_status,omitempty"`
	VideoURL     string         `json:"video_url,omitempty"`
	Error        string         `json:"error,omitempty"`
	Updated      bool           `json:"updated"`
	Generation   *db.Generation `json:"generation,omitempty"`
}

// Tracker performs stateless status checks.
type Tracker struct {
	renders  StatusSource
	store    GenerationStore
	locker   Locker
	leaseTTL time.Duration
	logger   zerolog.Logger
}

// New creates a tracker. A nil locker disables leasing.
func New(renders StatusSource, store GenerationStore, locker Locker, leaseTTL time.Duration, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NoStore{}
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if leaseTTL <= 0 {
		leaseTTL = DefaultLeaseTTL
	}
	return &Tracker{renders: renders, store: store, locker: locker, leaseTTL: leaseTTL, logger: logger}
}

// Check queries the render and applies a terminal outcome to its record at most once.
// A record already in a terminal state is reported without contacting the render service.
func (t *Tracker) Check(ctx context.Context, renderID string) (*Result, error) {
	renderID = strings.TrimSpace(renderID)
	if renderID == "" {
		return nil, fmt.Errorf("render id is required")
	}

	release, ok, err := t.locker.Acquire(ctx, renderID, t.leaseTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	defer release(context.WithoutCancel(ctx))

	record, err := t.store.GetGenerationByRenderID(ctx, renderID)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Terminal() {
		return fromRecord(record, false), nil
	}

	report, err := t.renders.Status(ctx, renderID)
	if err != nil {
		return nil, err
	}

	log := t.logger.With().Str("render_id", renderID).Str("render_status", string(report.Status)).Logger()

	switch {
	case report.Status == render.StatusDone && report.URL != "":
		gen, updated, err := t.store.CompleteGeneration(ctx, renderID, report.URL)
		if err != nil {
			return t.unpersisted(report, db.StatusCompleted, err)
		}
		log.Info().Bool("updated", updated).Msg("render completed")
		res := fromRecord(gen, updated)
		res.RenderStatus = report.Status
		return res, nil

	case report.Status == render.StatusFailed:
		gen, updated, err := t.store.FailGeneration(ctx, renderID, report.Error)
		if err != nil {
			return t.unpersisted(report, db.StatusFailed, err)
		}
		log.Warn().Bool("updated", updated).Str("error", report.Error).Msg("render failed")
		res := fromRecord(gen, updated)
		res.RenderStatus = report.Status
		return res, nil

	default:
		log.Debug().Msg("render in progress")
		return &Result{
			RenderID:     renderID,
			Status:       db.StatusProcessing,
			RenderStatus: report.Status,
			Generation:   record,
		}, nil
	}
}

// unpersisted reports a terminal render whose record is missing. Other store errors propagate.
func (t *Tracker) unpersisted(report *render.Report, status string, err error) (*Result, error) {
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	t.logger.Warn().Str("render_id", report.ID).Msg("render finished but no generation record exists")

	res := &Result{RenderID: report.ID, Status: status, RenderStatus: report.Status}
	if status == db.StatusCompleted {
		res.VideoURL = report.URL
	} else {
		res.Error = report.Error
		if res.Error == "" {
			res.Error = db.DefaultRenderFailure
		}
	}
	return res, nil
}

func fromRecord(gen *db.Generation, updated bool) *Result {
	res := &Result{
		RenderID:   gen.RenderID,
		Status:     gen.Status,
		Updated:    updated,
		Generation: gen,
	}
	if gen.VideoURL != nil {
		res.VideoURL = *gen.VideoURL
	}
	if gen.ErrorMessage != nil {
		res.Error = *gen.ErrorMessage
	}
	return res
}
