// Package types provides type definitions for structured data used throughout the reel-studio system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Request defaults applied by Normalize.
const (
	DefaultDuration = "30s"
	DefaultStyle    = "realistic"
	DefaultTone     = "Professional"
	DefaultVoiceID  = "21m00Tcm4TlvDq8ikWAM" // ElevenLabs "Rachel"
)

// DurationBuckets lists the supported video lengths in seconds.
var DurationBuckets = []int{15, 30, 60, 120}

// GenerationRequest is the caller-supplied draft for one pipeline run.
type GenerationRequest struct {
	Idea      string     `json:"idea" validate:"required"`
	Duration  string     `json:"duration,omitempty" validate:"omitempty,oneof=15s 30s 60s 120s 15 30 60 120"`
	Style     string     `json:"style,omitempty"`
	VoiceID   string     `json:"voice_id,omitempty"`
	FrameSize string     `json:"frame_size,omitempty"`
	Tone      string     `json:"tone,omitempty"`
	UserID    *uuid.UUID `json:"-"`
}

// Normalize trims whitespace and fills defaults for optional fields.
func (r *GenerationRequest) Normalize() {
	r.Idea = strings.TrimSpace(r.Idea)
	r.Duration = strings.ToLower(strings.TrimSpace(r.Duration))
	r.Style = strings.TrimSpace(r.Style)
	r.VoiceID = strings.TrimSpace(r.VoiceID)
	r.FrameSize = strings.ToLower(strings.TrimSpace(r.FrameSize))
	r.Tone = strings.TrimSpace(r.Tone)

	if r.Duration == "" {
		r.Duration = DefaultDuration
	}
	if r.Style == "" {
		r.Style = DefaultStyle
	}
	if r.VoiceID == "" {
		r.VoiceID = DefaultVoiceID
	}
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
}

// Validate normalizes the request and checks it with the struct validator.
func (r *GenerationRequest) Validate() error {
	r.Normalize()

	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: describeTag(fe.Tag(), fe.Param()),
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// Seconds maps the duration bucket to whole seconds.
func (r *GenerationRequest) Seconds() (int, error) {
	return ParseDuration(r.Duration)
}

// ParseDuration converts a bucket like "30s" or "30" into seconds.
func ParseDuration(value string) (int, error) {
	value = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "s")
	if value == "" {
		value = strings.TrimSuffix(DefaultDuration, "s")
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ValidationError{Field: "duration", Message: fmt.Sprintf("invalid duration %q", value)}
	}
	for _, bucket := range DurationBuckets {
		if bucket == seconds {
			return seconds, nil
		}
	}
	return 0, &ValidationError{Field: "duration", Message: fmt.Sprintf("unsupported duration %ds", seconds)}
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + param
	default:
		return "failed " + tag + " check"
	}
}
