package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/reel-studio/internal/types"
)

// -----------------------------------------------------------------------------
// Generation Methods
// -----------------------------------------------------------------------------

const generationColumns = `id, user_id, idea, duration, style, voice_id, frame_size, script,
	render_id, status, visual_urls, audio_urls, video_url, error_message, created_at, completed_at`

// CreateGeneration inserts a record in processing state for a submitted render.
func (db *DB) CreateGeneration(ctx context.Context, input *GenerationInput) (*Generation, error) {
	if input == nil || input.RenderID == "" {
		return nil, &WriteError{Op: "create generation", Cause: fmt.Errorf("render id is required")}
	}
	scriptJSON, err := json.Marshal(input.Script)
	if err != nil {
		return nil, &WriteError{Op: "create generation", Cause: fmt.Errorf("failed to marshal script: %w", err)}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO generations (user_id, idea, duration, style, voice_id, frame_size, script,
		                          render_id, status, visual_urls, audio_urls)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'processing', $9, $10)
		 RETURNING `+generationColumns,
		input.UserID, input.Idea, input.Duration, input.Style, input.VoiceID, input.FrameSize,
		scriptJSON, input.RenderID, nonNil(input.VisualURLs), nonNil(input.AudioURLs),
	)
	gen, err := scanGeneration(row)
	if err != nil {
		return nil, &WriteError{Op: "create generation", Cause: err}
	}
	return gen, nil
}

// GetGeneration retrieves a generation by ID. It returns nil when none exists.
func (db *DB) GetGeneration(ctx context.Context, id uuid.UUID) (*Generation, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = $1`, id)
	gen, err := scanGeneration(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return gen, nil
}

// GetGenerationByRenderID retrieves a generation by its render job id.
func (db *DB) GetGenerationByRenderID(ctx context.Context, renderID string) (*Generation, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+generationColumns+` FROM generations WHERE render_id = $1`, renderID)
	gen, err := scanGeneration(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generation by render id: %w", err)
	}
	return gen, nil
}

// ListGenerations lists records newest first, scoped to a user when one is given.
func (db *DB) ListGenerations(ctx context.Context, opts ListOptions) ([]Generation, error) {
	opts = opts.normalized()
	rows, err := db.pool.Query(ctx,
		`SELECT `+generationColumns+` FROM generations
		 WHERE ($1::uuid IS NULL OR user_id = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		opts.UserID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return collectGenerations(rows)
}

// ListProcessingGenerations lists records still waiting on their render, oldest first.
func (db *DB) ListProcessingGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = MaxListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+generationColumns+` FROM generations
		 WHERE status = 'processing' ORDER BY created_at ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing generations: %w", err)
	}
	return collectGenerations(rows)
}

// CompleteGeneration moves a processing record to completed. The returned flag is
// false when the record had already left processing; the stored record is returned as is.
func (db *DB) CompleteGeneration(ctx context.Context, renderID, videoURL string) (*Generation, bool, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE generations
		 SET status = 'completed', video_url = $2, completed_at = NOW()
		 WHERE render_id = $1 AND status = 'processing'
		 RETURNING `+generationColumns,
		renderID, videoURL,
	)
	return db.finishTransition(ctx, "complete generation", renderID, row)
}

// FailGeneration moves a processing record to failed with the given reason.
func (db *DB) FailGeneration(ctx context.Context, renderID, reason string) (*Generation, bool, error) {
	if reason == "" {
		reason = DefaultRenderFailure
	}
	row := db.pool.QueryRow(ctx,
		`UPDATE generations
		 SET status = 'failed', error_message = $2, completed_at = NOW()
		 WHERE render_id = $1 AND status = 'processing'
		 RETURNING `+generationColumns,
		renderID, reason,
	)
	return db.finishTransition(ctx, "fail generation", renderID, row)
}

func (db *DB) finishTransition(ctx context.Context, op, renderID string, row pgx.Row) (*Generation, bool, error) {
	gen, err := scanGeneration(row)
	if err == nil {
		return gen, true, nil
	}
	if !isNoRows(err) {
		return nil, false, &WriteError{Op: op, Cause: err}
	}

	existing, err := db.GetGenerationByRenderID(ctx, renderID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("generation for render %s: %w", renderID, ErrNotFound)
	}
	return existing, false, nil
}

// DeleteGeneration removes a record, scoped to a user when one is given.
func (db *DB) DeleteGeneration(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM generations WHERE id = $1 AND ($2::uuid IS NULL OR user_id = $2)`,
		id, userID,
	)
	if err != nil {
		return &WriteError{Op: "delete generation", Cause: err}
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectGenerations(rows pgx.Rows) ([]Generation, error) {
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, *gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return gens, nil
}

func scanGeneration(row pgx.Row) (*Generation, error) {
	var gen Generation
	var scriptJSON []byte
	err := row.Scan(&gen.ID, &gen.UserID, &gen.Idea, &gen.Duration, &gen.Style, &gen.VoiceID,
		&gen.FrameSize, &scriptJSON, &gen.RenderID, &gen.Status, &gen.VisualURLs, &gen.AudioURLs,
		&gen.VideoURL, &gen.ErrorMessage, &gen.CreatedAt, &gen.CompletedAt)
	if err != nil {
		return nil, err
	}
	if len(scriptJSON) > 0 && string(scriptJSON) != "null" {
		var script types.Script
		if err := json.Unmarshal(scriptJSON, &script); err != nil {
			return nil, fmt.Errorf("failed to unmarshal script: %w", err)
		}
		gen.Script = &script
	}
	return &gen, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
