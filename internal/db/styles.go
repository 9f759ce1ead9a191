package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Style Methods
// -----------------------------------------------------------------------------

// CreateStyle stores a custom style
func (db *DB) CreateStyle(ctx context.Context, input *StyleInput) (*Style, error) {
	configJSON, err := json.Marshal(input.Config)
	if err != nil {
		return nil, &WriteError{Op: "create style", Cause: fmt.Errorf("failed to marshal config: %w", err)}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO styles (user_id, name, description, config)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, name, description, config, created_at`,
		input.UserID, input.Name, input.Description, configJSON,
	)
	style, err := scanStyle(row)
	if err != nil {
		return nil, &WriteError{Op: "create style", Cause: err}
	}
	return style, nil
}

// GetStyle retrieves a style by ID. It returns nil when none exists.
func (db *DB) GetStyle(ctx context.Context, id uuid.UUID) (*Style, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, user_id, name, description, config, created_at FROM styles WHERE id = $1`,
		id,
	)
	style, err := scanStyle(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get style: %w", err)
	}
	return style, nil
}

// ListStyles lists custom styles newest first, scoped to a user when one is given.
func (db *DB) ListStyles(ctx context.Context, opts ListOptions) ([]Style, error) {
	opts = opts.normalized()
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, name, description, config, created_at FROM styles
		 WHERE ($1::uuid IS NULL OR user_id = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		opts.UserID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	defer rows.Close()

	var styles []Style
	for rows.Next() {
		style, err := scanStyle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan style: %w", err)
		}
		styles = append(styles, *style)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate styles: %w", err)
	}
	return styles, nil
}

// DeleteStyle removes a custom style, scoped to a user when one is given.
func (db *DB) DeleteStyle(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM styles WHERE id = $1 AND ($2::uuid IS NULL OR user_id = $2)`,
		id, userID,
	)
	if err != nil {
		return &WriteError{Op: "delete style", Cause: err}
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("style %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanStyle(row pgx.Row) (*Style, error) {
	var style Style
	var configJSON []byte
	if err := row.Scan(&style.ID, &style.UserID, &style.Name, &style.Description, &configJSON, &style.CreatedAt); err != nil {
		return nil, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &style.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal style config: %w", err)
		}
	}
	return &style, nil
}
