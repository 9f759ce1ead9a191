// Package styles resolves style selectors into profiles and analyzes new custom styles.
package styles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/prompts"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
)

const notSpecified = "Not specified"

// FallbackPolicy decides what happens when a selector cannot be resolved.
type FallbackPolicy string

const (
	// FallbackDefault substitutes the realistic preset.
	FallbackDefault FallbackPolicy = "default"
	// FallbackFail propagates the resolution error.
	FallbackFail FallbackPolicy = "fail"
)

// ParseFallbackPolicy parses a configured policy name. Empty means FallbackDefault.
func ParseFallbackPolicy(value string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case FallbackDefault, "":
		return FallbackDefault, nil
	case FallbackFail:
		return FallbackFail, nil
	default:
		return "", fmt.Errorf("unknown style fallback policy %q", value)
	}
}

// NotFoundError means the selector is neither a preset nor a stored style.
type NotFoundError struct {
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("style %q not found", e.Selector)
}

// StyleStore reads custom styles.
type StyleStore interface {
	GetStyle(ctx context.Context, id uuid.UUID) (*db.Style, error)
}

// Resolver turns a style selector into a StyleProfile.
type Resolver struct {
	store  StyleStore
	logger zerolog.Logger
}

// NewResolver creates a resolver. A nil store resolves presets only.
func NewResolver(store StyleStore, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the preset for a known key or the stored style for a UUID selector.
// Presets never touch the store.
func (r *Resolver) Resolve(ctx context.Context, selector string) (*types.StyleProfile, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		p := DefaultProfile()
		return &p, nil
	}
	if p, ok := Preset(selector); ok {
		return &p, nil
	}

	id, err := uuid.Parse(selector)
	if err != nil || r.store == nil {
		return nil, &NotFoundError{Selector: selector}
	}

	record, err := r.store.GetStyle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load style %s: %w", id, err)
	}
	if record == nil {
		return nil, &NotFoundError{Selector: selector}
	}
	return CustomProfile(record)
}

// ResolveWithPolicy applies policy to any resolution failure.
func (r *Resolver) ResolveWithPolicy(ctx context.Context, selector string, policy FallbackPolicy) (*types.StyleProfile, error) {
	profile, err := r.Resolve(ctx, selector)
	if err == nil {
		return profile, nil
	}
	if policy == FallbackFail {
		return nil, err
	}

	var notFound *NotFoundError
	event := r.logger.Warn().Str("selector", selector)
	if !errors.As(err, &notFound) {
		event = event.Err(err)
	}
	event.Msg("style not resolved, using realistic preset")

	p := DefaultProfile()
	return &p, nil
}

// CustomProfile composes a stored style into a profile whose guide carries every directive.
func CustomProfile(record *db.Style) (*types.StyleProfile, error) {
	cfg := record.Config
	guide, err := prompts.Render("style.json", "custom_guide", map[string]string{
		"Name":         record.Name,
		"Description":  record.Description,
		"Mood":         orNotSpecified(cfg.Mood),
		"Lighting":     orNotSpecified(cfg.Lighting),
		"Camera":       orNotSpecified(cfg.Camera),
		"ColorPalette": orNotSpecified(cfg.ColorPalette),
		"Keywords":     cfg.VisualPromptSuffix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build style guide: %w", err)
	}

	return &types.StyleProfile{
		Key:          record.ID.String(),
		Name:         record.Name,
		Guide:        guide,
		PromptSuffix: cfg.VisualPromptSuffix,
		Lighting:     cfg.Lighting,
		Camera:       cfg.Camera,
		ColorPalette: cfg.ColorPalette,
		Mood:         cfg.Mood,
		Custom:       true,
	}, nil
}

func orNotSpecified(value string) string {
	if strings.TrimSpace(value) == "" {
		return notSpecified
	}
	return value
}
