package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/reel-studio/internal/types"
)

// Generation status values. A record leaves processing at most once.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DefaultRenderFailure is stored when the render service gives no reason.
const DefaultRenderFailure = "Render failed"

// Generation represents a generations row
type Generation struct {
	ID           uuid.UUID     `json:"id"`
	UserID       *uuid.UUID    `json:"user_id,omitempty"`
	Idea         string        `json:"idea"`
	Duration     string        `json:"duration"`
	Style        string        `json:"style"`
	VoiceID      string        `json:"voice_id"`
	FrameSize    string        `json:"frame_size"`
	Script       *types.Script `json:"script"`
	RenderID     string        `json:"render_id"`
	Status       string        `json:"status"`
	VisualURLs   []string      `json:"visual_urls"`
	AudioURLs    []string      `json:"audio_urls"`
	VideoURL     *string       `json:"video_url,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Terminal reports whether the record has reached completed or failed.
func (g *Generation) Terminal() bool {
	return g.Status == StatusCompleted || g.Status == StatusFailed
}

// GenerationInput is the data persisted once a render has been submitted.
type GenerationInput struct {
	UserID     *uuid.UUID
	Idea       string
	Duration   string
	Style      string
	VoiceID    string
	FrameSize  string
	Script     *types.Script
	RenderID   string
	VisualURLs []string
	AudioURLs  []string
}

// Style represents a styles row
type Style struct {
	ID          uuid.UUID         `json:"id"`
	UserID      *uuid.UUID        `json:"user_id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Config      types.StyleConfig `json:"config"`
	CreatedAt   time.Time         `json:"created_at"`
}

// StyleInput holds the fields for creating a custom style
type StyleInput struct {
	UserID      *uuid.UUID        `json:"-"`
	Name        string            `json:"name" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=2000"`
	Config      types.StyleConfig `json:"config"`
}

// ListOptions pages through user-scoped listings
type ListOptions struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

// Listing bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
