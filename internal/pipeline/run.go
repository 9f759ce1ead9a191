// Package pipeline orchestrates one video generation from idea to submitted render.
package pipeline

import (
	"context"
	"strconv"

	"github.com/jonathan/reel-studio/internal/composition"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/scripting"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// StyleResolver resolves a selector under a fallback policy.
type StyleResolver interface {
	ResolveWithPolicy(ctx context.Context, selector string, policy styles.FallbackPolicy) (*types.StyleProfile, error)
}

// ScriptWriter produces a validated script.
type ScriptWriter interface {
	Generate(ctx context.Context, in scripting.Input) (*types.Script, error)
}

// AssetGenerator produces stored media for each scene.
type AssetGenerator interface {
	Generate(ctx context.Context, scenes []types.Scene, voiceID, frameSize string) ([]types.SceneAsset, error)
}

// RenderSubmitter submits a timeline for rendering.
type RenderSubmitter interface {
	Submit(ctx context.Context, edit *composition.Edit) (string, error)
	StatusURL(renderID string) string
}

// GenerationRecorder persists submitted generations.
type GenerationRecorder interface {
	CreateGeneration(ctx context.Context, input *db.GenerationInput) (*db.Generation, error)
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Styles   StyleResolver
	Scripts  ScriptWriter
	Assets   AssetGenerator
	Renders  RenderSubmitter
	Recorder GenerationRecorder
}

// Options tune coordinator behavior.
type Options struct {
	StyleFallback styles.FallbackPolicy
	AudioPolicy   composition.AudioPolicy
	Logger        zerolog.Logger
}

// Result is what a caller gets back once the render has been submitted.
type Result struct {
	GenerationID string        `json:"generation_id,omitempty"`
	RenderID     string        `json:"render_id"`
	StatusURL    string        `json:"status_url"`
	Status       string        `json:"status"`
	Script       *types.Script `json:"script"`
	VisualURLs   []string      `json:"visual_urls"`
	AudioURLs    []string      `json:"audio_urls"`
	RecordSaved  bool          `json:"record_saved"`
}

// Coordinator runs the stages of a generation in order.
type Coordinator struct {
	deps Deps
	opts Options
}

// NewCoordinator creates a coordinator. Recorder may be nil when persistence is disabled.
func NewCoordinator(deps Deps, opts Options) *Coordinator {
	if opts.StyleFallback == "" {
		opts.StyleFallback = styles.FallbackDefault
	}
	if opts.AudioPolicy == "" {
		opts.AudioPolicy = composition.AudioPlayThrough
	}
	return &Coordinator{deps: deps, opts: opts}
}

// emitProgress calls the progress callback if configured
func emitProgress(onProgress ProgressCallback, step string, content any) {
	if onProgress != nil {
		onProgress(ProgressEvent{
			Step:    step,
			Message: StageRegistry[step].Progress,
			Content: content,
		})
	}
}

// Run validates the request, writes the script, generates assets, submits the render and
// records the generation. Failures before submission are *StageError and leave no record.
// A failed record write after submission is logged and reported via Result.RecordSaved.
func (c *Coordinator) Run(ctx context.Context, req types.GenerationRequest, onProgress ProgressCallback) (*Result, error) {
	log := c.opts.Logger

	if err := req.Validate(); err != nil {
		return nil, stageError(StageValidate, err)
	}
	seconds, err := req.Seconds()
	if err != nil {
		return nil, stageError(StageValidate, err)
	}

	emitProgress(onProgress, StageStyle, nil)
	profile, err := c.deps.Styles.ResolveWithPolicy(ctx, req.Style, c.opts.StyleFallback)
	if err != nil {
		return nil, stageError(StageStyle, err)
	}
	log.Debug().Str("style", profile.Key).Bool("custom", profile.Custom).Msg("style resolved")

	emitProgress(onProgress, StageScript, profile)
	script, err := c.deps.Scripts.Generate(ctx, scripting.Input{
		Idea:          req.Idea,
		Tone:          req.Tone,
		DurationLabel: strconv.Itoa(seconds) + "s",
		TotalSeconds:  seconds,
		Style:         profile,
	})
	if err != nil {
		return nil, stageError(StageScript, err)
	}

	emitProgress(onProgress, StageAssets, script)
	assets, err := c.deps.Assets.Generate(ctx, script.Scenes, req.VoiceID, req.FrameSize)
	if err != nil {
		return nil, stageError(StageAssets, err)
	}

	edit, err := composition.Build(script, assets, req.FrameSize, c.opts.AudioPolicy)
	if err != nil {
		return nil, stageError(StageCompose, err)
	}

	emitProgress(onProgress, StageRender, assets)
	renderID, err := c.deps.Renders.Submit(ctx, edit)
	if err != nil {
		return nil, stageError(StageRender, err)
	}
	log.Info().Str("render_id", renderID).Str("title", script.Title).Msg("render submitted")

	result := &Result{
		RenderID:   renderID,
		StatusURL:  c.deps.Renders.StatusURL(renderID),
		Status:     db.StatusProcessing,
		Script:     script,
		VisualURLs: types.VisualURLs(assets),
		AudioURLs:  types.AudioURLs(assets),
	}

	if c.deps.Recorder != nil {
		// Render already running: record failures are logged, not returned.
		gen, err := c.deps.Recorder.CreateGeneration(context.WithoutCancel(ctx), &db.GenerationInput{
			UserID:     req.UserID,
			Idea:       req.Idea,
			Duration:   req.Duration,
			Style:      req.Style,
			VoiceID:    req.VoiceID,
			FrameSize:  req.FrameSize,
			Script:     script,
			RenderID:   renderID,
			VisualURLs: result.VisualURLs,
			AudioURLs:  result.AudioURLs,
		})
		if err != nil {
			log.Error().Err(err).Str("render_id", renderID).Msg("failed to save generation record")
		} else {
			result.GenerationID = gen.ID.String()
			result.RecordSaved = true
		}
	}

	emitProgress(onProgress, StageSaved, result)
	return result, nil
}
