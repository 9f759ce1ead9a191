// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration. It can be loaded from a YAML file
// and is then overlaid by environment variables. Missing values use defaults.
type Config struct {
	AppEnv      string `yaml:"app_env,omitempty"`
	Port        string `yaml:"port,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty"`

	LLM       LLMConfig       `yaml:"llm"`
	Visual    VisualConfig    `yaml:"visual"`
	Narration NarrationConfig `yaml:"narration"`
	Render    RenderConfig    `yaml:"render"`
	Storage   StorageConfig   `yaml:"storage"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Retry     RetryConfig     `yaml:"retry"`
}

// LLMConfig selects and configures the text-completion provider.
type LLMConfig struct {
	Provider      string  `yaml:"provider,omitempty"` // openai | gemini
	OpenAIKey     string  `yaml:"openai_api_key,omitempty"`
	OpenAIBaseURL string  `yaml:"openai_base_url,omitempty"`
	OpenAIModel   string  `yaml:"openai_model,omitempty"`
	GeminiKey     string  `yaml:"gemini_api_key,omitempty"`
	GeminiModel   string  `yaml:"gemini_model,omitempty"`
	Temperature   float32 `yaml:"temperature,omitempty"`
}

// VisualConfig configures the fal.ai queue client.
type VisualConfig struct {
	APIKey       string        `yaml:"api_key,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	Model        string        `yaml:"model,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	MaxAttempts  int           `yaml:"max_attempts,omitempty"`
}

// NarrationConfig configures the ElevenLabs client.
type NarrationConfig struct {
	APIKey          string  `yaml:"api_key,omitempty"`
	BaseURL         string  `yaml:"base_url,omitempty"`
	ModelID         string  `yaml:"model_id,omitempty"`
	Stability       float64 `yaml:"stability,omitempty"`
	SimilarityBoost float64 `yaml:"similarity_boost,omitempty"`
}

// RenderConfig configures the Shotstack client.
type RenderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Stage   string `yaml:"stage,omitempty"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Backend       string `yaml:"backend,omitempty"` // fs | gcs | supabase
	Dir           string `yaml:"dir,omitempty"`
	PublicBaseURL string `yaml:"public_base_url,omitempty"`
	Bucket        string `yaml:"bucket,omitempty"`
	SupabaseURL   string `yaml:"supabase_url,omitempty"`
	SupabaseKey   string `yaml:"supabase_key,omitempty"`
}

// PipelineConfig holds policy switches for the generation pipeline.
type PipelineConfig struct {
	StyleFallback string `yaml:"style_fallback,omitempty"` // default | fail
	AudioPolicy   string `yaml:"audio_policy,omitempty"`   // play_through | clamp
}

// TrackerConfig configures the render watcher and its lease store.
type TrackerConfig struct {
	Interval      time.Duration `yaml:"interval,omitempty"`
	LeaseTTL      time.Duration `yaml:"lease_ttl,omitempty"`
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db,omitempty"`
}

// RetryConfig bounds the exponential backoff around provider calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts,omitempty"`
	InitialInterval time.Duration `yaml:"initial_interval,omitempty"`
	MaxInterval     time.Duration `yaml:"max_interval,omitempty"`
	Multiplier      float64       `yaml:"multiplier,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		AppEnv: "development",
		Port:   "8080",
		LLM: LLMConfig{
			Provider:    "openai",
			OpenAIModel: "gpt-4o",
			GeminiModel: "gemini-1.5-pro",
			Temperature: 0.8,
		},
		Visual: VisualConfig{
			BaseURL:      "https://queue.fal.run",
			Model:        "fal-ai/minimax-video",
			PollInterval: 5 * time.Second,
			MaxAttempts:  60,
		},
		Narration: NarrationConfig{
			BaseURL:         "https://api.elevenlabs.io",
			ModelID:         "eleven_monolingual_v1",
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
		Render: RenderConfig{
			BaseURL: "https://api.shotstack.io",
			Stage:   "stage",
		},
		Storage: StorageConfig{
			Backend:       "fs",
			Dir:           "data/assets",
			PublicBaseURL: "http://localhost:8080/assets",
			Bucket:        "assets",
		},
		Pipeline: PipelineConfig{
			StyleFallback: "default",
			AudioPolicy:   "play_through",
		},
		Tracker: TrackerConfig{
			Interval: 10 * time.Second,
			LeaseTTL: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: the optional YAML file, overlaid by
// environment variables, merged with defaults and validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.Getenv)
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overlays values found in the environment onto the config.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString(&c.AppEnv, "APP_ENV")
	setString(&c.Port, "PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.LLM.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.OpenAIModel, "OPENAI_MODEL")
	setString(&c.LLM.GeminiKey, "GEMINI_API_KEY")
	setString(&c.LLM.GeminiModel, "GEMINI_MODEL")

	setString(&c.Visual.APIKey, "FAL_KEY")
	setString(&c.Visual.BaseURL, "FAL_BASE_URL")
	setString(&c.Visual.Model, "FAL_MODEL")
	setDuration(&c.Visual.PollInterval, "FAL_POLL_INTERVAL")
	setInt(&c.Visual.MaxAttempts, "FAL_MAX_ATTEMPTS")

	setString(&c.Narration.APIKey, "ELEVENLABS_API_KEY")
	setString(&c.Narration.BaseURL, "ELEVENLABS_BASE_URL")

	setString(&c.Render.APIKey, "SHOTSTACK_API_KEY")
	setString(&c.Render.BaseURL, "SHOTSTACK_BASE_URL")
	setString(&c.Render.Stage, "SHOTSTACK_STAGE")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.Dir, "STORAGE_DIR")
	setString(&c.Storage.PublicBaseURL, "STORAGE_PUBLIC_URL")
	setString(&c.Storage.Bucket, "STORAGE_BUCKET")
	setString(&c.Storage.SupabaseURL, "SUPABASE_URL")
	setString(&c.Storage.SupabaseKey, "SUPABASE_SERVICE_ROLE_KEY")

	setString(&c.Pipeline.StyleFallback, "STYLE_FALLBACK")
	setString(&c.Pipeline.AudioPolicy, "AUDIO_POLICY")

	setDuration(&c.Tracker.Interval, "TRACKER_INTERVAL")
	setDuration(&c.Tracker.LeaseTTL, "TRACKER_LEASE_TTL")
	setString(&c.Tracker.RedisAddr, "REDIS_ADDR")
	setString(&c.Tracker.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.Tracker.RedisDB, "REDIS_DB")

	setInt(&c.Retry.MaxAttempts, "RETRY_MAX_ATTEMPTS")
}

// Validate checks that the configuration has valid values.
// Credentials are not required here; commands check the ones they need.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("config error: 'llm.provider' must be openai or gemini, got %q", c.LLM.Provider)
	}

	switch c.Storage.Backend {
	case "", "fs", "gcs", "supabase":
	default:
		return fmt.Errorf("config error: 'storage.backend' must be fs, gcs or supabase, got %q", c.Storage.Backend)
	}

	switch c.Pipeline.StyleFallback {
	case "", "default", "fail":
	default:
		return fmt.Errorf("config error: 'pipeline.style_fallback' must be default or fail, got %q", c.Pipeline.StyleFallback)
	}

	switch c.Pipeline.AudioPolicy {
	case "", "play_through", "clamp":
	default:
		return fmt.Errorf("config error: 'pipeline.audio_policy' must be play_through or clamp, got %q", c.Pipeline.AudioPolicy)
	}

	if c.Visual.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'visual.max_attempts' must be non-negative")
	}
	if c.Visual.PollInterval < 0 {
		return fmt.Errorf("config error: 'visual.poll_interval' must be non-negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'retry.max_attempts' must be non-negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2")
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.AppEnv, defaults.AppEnv)
	mergeString(&result.Port, defaults.Port)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)

	mergeString(&result.LLM.Provider, defaults.LLM.Provider)
	mergeString(&result.LLM.OpenAIKey, defaults.LLM.OpenAIKey)
	mergeString(&result.LLM.OpenAIBaseURL, defaults.LLM.OpenAIBaseURL)
	mergeString(&result.LLM.OpenAIModel, defaults.LLM.OpenAIModel)
	mergeString(&result.LLM.GeminiKey, defaults.LLM.GeminiKey)
	mergeString(&result.LLM.GeminiModel, defaults.LLM.GeminiModel)
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = defaults.LLM.Temperature
	}

	mergeString(&result.Visual.APIKey, defaults.Visual.APIKey)
	mergeString(&result.Visual.BaseURL, defaults.Visual.BaseURL)
	mergeString(&result.Visual.Model, defaults.Visual.Model)
	if result.Visual.PollInterval == 0 {
		result.Visual.PollInterval = defaults.Visual.PollInterval
	}
	if result.Visual.MaxAttempts == 0 {
		result.Visual.MaxAttempts = defaults.Visual.MaxAttempts
	}

	mergeString(&result.Narration.APIKey, defaults.Narration.APIKey)
	mergeString(&result.Narration.BaseURL, defaults.Narration.BaseURL)
	mergeString(&result.Narration.ModelID, defaults.Narration.ModelID)
	if result.Narration.Stability == 0 {
		result.Narration.Stability = defaults.Narration.Stability
	}
	if result.Narration.SimilarityBoost == 0 {
		result.Narration.SimilarityBoost = defaults.Narration.SimilarityBoost
	}

	mergeString(&result.Render.APIKey, defaults.Render.APIKey)
	mergeString(&result.Render.BaseURL, defaults.Render.BaseURL)
	mergeString(&result.Render.Stage, defaults.Render.Stage)

	mergeString(&result.Storage.Backend, defaults.Storage.Backend)
	mergeString(&result.Storage.Dir, defaults.Storage.Dir)
	mergeString(&result.Storage.PublicBaseURL, defaults.Storage.PublicBaseURL)
	mergeString(&result.Storage.Bucket, defaults.Storage.Bucket)
	mergeString(&result.Storage.SupabaseURL, defaults.Storage.SupabaseURL)
	mergeString(&result.Storage.SupabaseKey, defaults.Storage.SupabaseKey)

	mergeString(&result.Pipeline.StyleFallback, defaults.Pipeline.StyleFallback)
	mergeString(&result.Pipeline.AudioPolicy, defaults.Pipeline.AudioPolicy)

	if result.Tracker.Interval == 0 {
		result.Tracker.Interval = defaults.Tracker.Interval
	}
	if result.Tracker.LeaseTTL == 0 {
		result.Tracker.LeaseTTL = defaults.Tracker.LeaseTTL
	}
	mergeString(&result.Tracker.RedisAddr, defaults.Tracker.RedisAddr)
	mergeString(&result.Tracker.RedisPassword, defaults.Tracker.RedisPassword)

	if result.Retry.MaxAttempts == 0 {
		result.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if result.Retry.InitialInterval == 0 {
		result.Retry.InitialInterval = defaults.Retry.InitialInterval
	}
	if result.Retry.MaxInterval == 0 {
		result.Retry.MaxInterval = defaults.Retry.MaxInterval
	}
	if result.Retry.Multiplier == 0 {
		result.Retry.Multiplier = defaults.Retry.Multiplier
	}

	return result
}

func mergeString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
