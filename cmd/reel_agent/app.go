package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jonathan/reel-studio/internal/assets"
	"github.com/jonathan/reel-studio/internal/composition"
	"github.com/jonathan/reel-studio/internal/config"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/llm"
	"github.com/jonathan/reel-studio/internal/logging"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/providers/narration"
	"github.com/jonathan/reel-studio/internal/providers/render"
	"github.com/jonathan/reel-studio/internal/providers/visual"
	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/jonathan/reel-studio/internal/scripting"
	"github.com/jonathan/reel-studio/internal/storage"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// app holds the shared collaborators a command needs. Fields are created on demand.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	db     *db.DB
	llm    llm.Client
	redis  *redis.Client
}

// newApp loads configuration and the logger. CLI logs go to stderr so stdout stays readable.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cfg.AppEnv, os.Stderr)
	if !verbose && cfg.AppEnv != logging.EnvDevelopment {
		logger = logger.Level(zerolog.WarnLevel)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// Close releases every opened connection.
func (a *app) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// openDB connects to PostgreSQL. Without DATABASE_URL it returns nil unless required.
func (a *app) openDB(ctx context.Context, required bool) (*db.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if a.cfg.DatabaseURL == "" {
		if required {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
		a.logger.Warn().Msg("DATABASE_URL not set: generations will not be recorded")
		return nil, nil
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = database
	return database, nil
}

func (a *app) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     a.cfg.Retry.MaxAttempts,
		InitialInterval: a.cfg.Retry.InitialInterval,
		MaxInterval:     a.cfg.Retry.MaxInterval,
		Multiplier:      a.cfg.Retry.Multiplier,
	}
}

// llmConfig maps the LLM section onto the provider config.
func llmConfig(cfg config.LLMConfig) (*llm.Config, string, error) {
	lc := llm.ConfigFor(cfg.Provider)
	var apiKey, model string
	switch lc.Provider {
	case llm.ProviderGemini:
		apiKey, model = cfg.GeminiKey, cfg.GeminiModel
	default:
		apiKey, model = cfg.OpenAIKey, cfg.OpenAIModel
		lc.BaseURL = cfg.OpenAIBaseURL
	}
	if model != "" {
		lc = lc.WithModel(llm.TierStandard, model)
	}
	if apiKey == "" {
		return nil, "", fmt.Errorf("an API key for the %s LLM provider is required (OPENAI_API_KEY or GEMINI_API_KEY)", lc.Provider)
	}
	return lc, apiKey, nil
}

func (a *app) llmClient(ctx context.Context) (llm.Client, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	lc, apiKey, err := llmConfig(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, lc, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client
	return client, nil
}

// objectStore builds the configured asset store backend.
func (a *app) objectStore(ctx context.Context) (storage.ObjectStore, error) {
	sc := a.cfg.Storage
	switch sc.Backend {
	case "gcs":
		var opts []option.ClientOption
		if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
		var gcsOpts []storage.GCSOption
		if sc.PublicBaseURL != "" && !strings.HasPrefix(sc.PublicBaseURL, "http://localhost") {
			gcsOpts = append(gcsOpts, storage.WithGCSPublicBase(sc.PublicBaseURL))
		}
		gcsOpts = append(gcsOpts, storage.WithGCSRetry(a.retryPolicy(), logging.Component(a.logger, "storage")))
		return storage.NewGCSStore(ctx, sc.Bucket, opts, gcsOpts...)
	case "supabase":
		if sc.SupabaseURL == "" || sc.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase storage backend")
		}
		return storage.NewSupabaseStore(sc.SupabaseURL, sc.SupabaseKey, sc.Bucket, a.retryPolicy(), logging.Component(a.logger, "storage"))
	default:
		return storage.NewFileStore(sc.Dir, sc.PublicBaseURL)
	}
}

func (a *app) renderClient() (*render.Client, error) {
	if a.cfg.Render.APIKey == "" {
		return nil, fmt.Errorf("SHOTSTACK_API_KEY environment variable is required")
	}
	return render.NewClient(a.cfg.Render.APIKey, render.Options{
		BaseURL: a.cfg.Render.BaseURL,
		Stage:   a.cfg.Render.Stage,
		Retry:   a.retryPolicy(),
		Logger:  logging.Component(a.logger, "render"),
	}), nil
}

// styleStore returns the database as a style store, or nil when there is none.
func styleStore(database *db.DB) styles.StyleStore {
	if database == nil {
		return nil
	}
	return database
}

// coordinator wires the full generation pipeline.
func (a *app) coordinator(ctx context.Context, database *db.DB) (*pipeline.Coordinator, error) {
	if a.cfg.Visual.APIKey == "" {
		return nil, fmt.Errorf("FAL_KEY environment variable is required")
	}
	if a.cfg.Narration.APIKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY environment variable is required")
	}

	fallback, err := styles.ParseFallbackPolicy(a.cfg.Pipeline.StyleFallback)
	if err != nil {
		return nil, err
	}
	audioPolicy, err := composition.ParseAudioPolicy(a.cfg.Pipeline.AudioPolicy)
	if err != nil {
		return nil, err
	}

	client, err := a.llmClient(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.objectStore(ctx)
	if err != nil {
		return nil, err
	}
	renders, err := a.renderClient()
	if err != nil {
		return nil, err
	}

	policy := a.retryPolicy()
	visuals := visual.NewFalClient(a.cfg.Visual.APIKey,
		visual.WithBaseURL(a.cfg.Visual.BaseURL),
		visual.WithModel(a.cfg.Visual.Model),
		visual.WithRetry(policy),
		visual.WithLogger(logging.Component(a.logger, "visual")),
	)
	voices := narration.NewElevenLabsClient(a.cfg.Narration.APIKey, narration.Options{
		BaseURL: a.cfg.Narration.BaseURL,
		ModelID: a.cfg.Narration.ModelID,
		Settings: narration.VoiceSettings{
			Stability:       a.cfg.Narration.Stability,
			SimilarityBoost: a.cfg.Narration.SimilarityBoost,
		},
		Retry:  policy,
		Logger: logging.Component(a.logger, "narration"),
	})
	assetLog := logging.Component(a.logger, "assets")
	poller := assets.NewPoller(visuals, a.cfg.Visual.PollInterval, a.cfg.Visual.MaxAttempts, assetLog)

	deps := pipeline.Deps{
		Styles:  styles.NewResolver(styleStore(database), logging.Component(a.logger, "styles")),
		Scripts: scripting.NewGenerator(client, scripting.WithTemperature(a.cfg.LLM.Temperature), scripting.WithLogger(logging.Component(a.logger, "scripting"))),
		Assets:  assets.NewGenerator(visuals, voices, store, poller, assetLog),
		Renders: renders,
	}
	if database != nil {
		deps.Recorder = database
	}

	return pipeline.NewCoordinator(deps, pipeline.Options{
		StyleFallback: fallback,
		AudioPolicy:   audioPolicy,
		Logger:        logging.Component(a.logger, "pipeline"),
	}), nil
}

// tracker wires the render status tracker with an optional Redis lease.
func (a *app) tracker(ctx context.Context, database *db.DB) (*tracker.Tracker, error) {
	renders, err := a.renderClient()
	if err != nil {
		return nil, err
	}

	var locker tracker.Locker
	if a.cfg.Tracker.RedisAddr != "" {
		rdb, err := tracker.NewRedisClient(ctx, a.cfg.Tracker.RedisAddr, a.cfg.Tracker.RedisPassword, a.cfg.Tracker.RedisDB)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		locker = tracker.NewRedisLocker(rdb)
	}

	var store tracker.GenerationStore
	if database != nil {
		store = database
	}
	return tracker.New(renders, store, locker, a.cfg.Tracker.LeaseTTL, logging.Component(a.logger, "tracker")), nil
}
