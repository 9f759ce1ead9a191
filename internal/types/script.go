package types

import (
	"fmt"
	"strings"
	"time"
)

// Transition is the effect used when a scene's visual clip enters the timeline.
type Transition string

// Supported transitions.
const (
	TransitionFade  Transition = "fade"
	TransitionCut   Transition = "cut"
	TransitionSlide Transition = "slide"
)

// NormalizeTransition maps free-form model output onto the supported set, defaulting to fade.
func NormalizeTransition(value string) Transition {
	switch Transition(strings.ToLower(strings.TrimSpace(value))) {
	case TransitionCut:
		return TransitionCut
	case TransitionSlide:
		return TransitionSlide
	default:
		return TransitionFade
	}
}

// Scene count bounds for a script.
const (
	MinScenes = 3
	MaxScenes = 4
)

// Scene is one timed segment of the final video.
type Scene struct {
	SceneNumber     int        `json:"scene_number"`
	VisualPrompt    string     `json:"visual_prompt"`
	Voiceover       string     `json:"voiceover"`
	DurationSeconds int        `json:"duration_seconds"`
	Transition      Transition `json:"transition"`
}

// Script is the structured scene list produced by the script generator.
type Script struct {
	Title         string    `json:"title"`
	TotalDuration int       `json:"total_duration"`
	Style         string    `json:"style"`
	Scenes        []Scene   `json:"scenes"`
	GeneratedAt   time.Time `json:"generated_at"`
	UserIdea      string    `json:"user_idea"`
}

// SceneStarts returns the timeline offset of each scene (running sum of prior durations).
func (s *Script) SceneStarts() []int {
	starts := make([]int, len(s.Scenes))
	offset := 0
	for i, scene := range s.Scenes {
		starts[i] = offset
		offset += scene.DurationSeconds
	}
	return starts
}

// DurationSum returns the sum of all scene durations.
func (s *Script) DurationSum() int {
	sum := 0
	for _, scene := range s.Scenes {
		sum += scene.DurationSeconds
	}
	return sum
}

// Validate checks the structural invariants of a script.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return &ValidationError{Field: "scenes", Message: "script has no scenes"}
	}
	if len(s.Scenes) < MinScenes || len(s.Scenes) > MaxScenes {
		return &ValidationError{
			Field:   "scenes",
			Message: fmt.Sprintf("expected %d-%d scenes, got %d", MinScenes, MaxScenes, len(s.Scenes)),
		}
	}
	for i, scene := range s.Scenes {
		if scene.SceneNumber != i+1 {
			return &ValidationError{
				Field:   fmt.Sprintf("scenes[%d].scene_number", i),
				Message: fmt.Sprintf("expected %d, got %d", i+1, scene.SceneNumber),
			}
		}
		if scene.DurationSeconds <= 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("scenes[%d].duration_seconds", i),
				Message: "must be positive",
			}
		}
		if strings.TrimSpace(scene.VisualPrompt) == "" {
			return &ValidationError{Field: fmt.Sprintf("scenes[%d].visual_prompt", i), Message: "is required"}
		}
		if strings.TrimSpace(scene.Voiceover) == "" {
			return &ValidationError{Field: fmt.Sprintf("scenes[%d].voiceover", i), Message: "is required"}
		}
	}
	if sum := s.DurationSum(); sum != s.TotalDuration {
		return &ValidationError{
			Field:   "scenes",
			Message: fmt.Sprintf("scene durations sum to %ds, want %ds", sum, s.TotalDuration),
		}
	}
	return nil
}
