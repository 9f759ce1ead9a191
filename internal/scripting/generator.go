// Package scripting turns an idea and a style profile into a validated scene script.
package scripting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/llm"
	"github.com/jonathan/reel-studio/internal/prompts"
	"github.com/jonathan/reel-studio/internal/schemas"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
)

// DefaultTemperature is the sampling temperature for script writing.
const DefaultTemperature float32 = 0.8

// ValidationError means the model's answer did not form a usable script.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid script: %s: %v", e.Message, e.Cause)
	}
	return "invalid script: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Input is everything the generator needs for one script.
type Input struct {
	Idea          string
	Tone          string
	DurationLabel string
	TotalSeconds  int
	Style         *types.StyleProfile
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRepairDurations toggles deterministic re-planning of mismatched scene durations.
func WithRepairDurations(enabled bool) Option {
	return func(g *Generator) { g.repair = enabled }
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// Generator writes scripts with one LLM call each.
type Generator struct {
	client      llm.Client
	now         func() time.Time
	repair      bool
	temperature float32
	logger      zerolog.Logger
}

// NewGenerator creates a generator with duration repair on.
func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		now:         time.Now,
		repair:      true,
		temperature: DefaultTemperature,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a script whose scenes satisfy the count, numbering and duration invariants.
func (g *Generator) Generate(ctx context.Context, in Input) (*types.Script, error) {
	if strings.TrimSpace(in.Idea) == "" {
		return nil, &types.ValidationError{Field: "idea", Message: "is required"}
	}
	if in.TotalSeconds <= 0 {
		return nil, &types.ValidationError{Field: "duration", Message: "must be positive"}
	}
	if in.Style == nil {
		return nil, &types.ValidationError{Field: "style", Message: "a resolved style is required"}
	}

	system, err := prompts.Get("script.json", "system")
	if err != nil {
		return nil, err
	}
	prompt, err := buildPrompt(in)
	if err != nil {
		return nil, err
	}

	raw, err := g.client.GenerateJSON(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Tier:        llm.TierStandard,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	script, err := parseScript(llm.CleanJSONBlock(raw))
	if err != nil {
		return nil, err
	}

	script.TotalDuration = in.TotalSeconds
	script.Style = in.Style.Key
	script.UserIdea = in.Idea
	script.GeneratedAt = g.now().UTC()
	for i := range script.Scenes {
		script.Scenes[i].Transition = types.NormalizeTransition(string(script.Scenes[i].Transition))
	}

	if g.repair {
		g.repairDurations(script)
	}

	if err := script.Validate(); err != nil {
		return nil, &ValidationError{Message: "script breaks scene invariants", Cause: err}
	}

	g.logger.Debug().
		Str("title", script.Title).
		Int("scenes", len(script.Scenes)).
		Int("total_seconds", script.TotalDuration).
		Msg("script generated")
	return script, nil
}

// repairDurations re-plans durations when the scene count is acceptable but the sum is not.
func (g *Generator) repairDurations(script *types.Script) {
	n := len(script.Scenes)
	if n < types.MinScenes || n > types.MaxScenes || script.DurationSum() == script.TotalDuration {
		return
	}

	plan := split(script.TotalDuration, n)
	g.logger.Warn().
		Int("got_seconds", script.DurationSum()).
		Int("want_seconds", script.TotalDuration).
		Ints("plan", plan).
		Msg("re-planning scene durations")
	for i := range script.Scenes {
		script.Scenes[i].DurationSeconds = plan[i]
	}
}

func buildPrompt(in Input) (string, error) {
	plan := PlanDurations(in.TotalSeconds)
	durations := make([]string, len(plan))
	for i, d := range plan {
		durations[i] = strconv.Itoa(d)
	}

	label := in.DurationLabel
	if label == "" {
		label = strconv.Itoa(in.TotalSeconds) + "s"
	}
	tone := in.Tone
	if tone == "" {
		tone = types.DefaultTone
	}
	styleName := in.Style.Name
	if styleName == "" {
		styleName = in.Style.Key
	}

	return prompts.Render("script.json", "write_script", map[string]string{
		"StyleName":          styleName,
		"StyleKey":           in.Style.Key,
		"StyleGuide":         in.Style.Guide,
		"Idea":               in.Idea,
		"Duration":           label,
		"TotalSeconds":       strconv.Itoa(in.TotalSeconds),
		"Tone":               tone,
		"SceneCount":         strconv.Itoa(len(plan)),
		"SceneDurations":     strings.Join(durations, ", "),
		"FirstSceneDuration": durations[0],
	})
}

func parseScript(body string) (*types.Script, error) {
	if err := schemas.ValidateBytes(schemas.Script, []byte(body)); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			return nil, &ValidationError{Message: "response does not match the script schema", Cause: err}
		}
		return nil, err
	}

	var script types.Script
	if err := json.Unmarshal([]byte(body), &script); err != nil {
		return nil, &ValidationError{Message: "response is not a script document", Cause: err}
	}
	return &script, nil
}
