package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
app_env: production
port: "9090"
llm:
  provider: gemini
  temperature: 0.5
visual:
  poll_interval: 2s
  max_attempts: 10
pipeline:
  style_fallback: fail
  audio_policy: clamp
storage:
  backend: gcs
  bucket: reels
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 2*time.Second, cfg.Visual.PollInterval)
	assert.Equal(t, 10, cfg.Visual.MaxAttempts)
	assert.Equal(t, "fail", cfg.Pipeline.StyleFallback)
	assert.Equal(t, "clamp", cfg.Pipeline.AudioPolicy)
	assert.Equal(t, "gcs", cfg.Storage.Backend)
	assert.Equal(t, "reels", cfg.Storage.Bucket)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "llm: [unclosed")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	cfg := Config{LLM: LLMConfig{Provider: "gemini"}, Pipeline: PipelineConfig{AudioPolicy: "clamp"}}
	env := map[string]string{
		"LLM_PROVIDER":      "openai",
		"OPENAI_API_KEY":    "sk-test",
		"FAL_POLL_INTERVAL": "1s",
		"FAL_MAX_ATTEMPTS":  "7",
		"STYLE_FALLBACK":    "fail",
		"REDIS_ADDR":        "localhost:6379",
		"TRACKER_INTERVAL":  "not-a-duration",
	}
	cfg.ApplyEnv(func(key string) string { return env[key] })

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIKey)
	assert.Equal(t, time.Second, cfg.Visual.PollInterval)
	assert.Equal(t, 7, cfg.Visual.MaxAttempts)
	assert.Equal(t, "fail", cfg.Pipeline.StyleFallback)
	assert.Equal(t, "clamp", cfg.Pipeline.AudioPolicy, "unset env keeps file value")
	assert.Equal(t, "localhost:6379", cfg.Tracker.RedisAddr)
	assert.Equal(t, time.Duration(0), cfg.Tracker.Interval, "unparseable duration is ignored")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: "9000", Visual: VisualConfig{MaxAttempts: 12}}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "9000", merged.Port)
	assert.Equal(t, 12, merged.Visual.MaxAttempts)
	assert.Equal(t, 5*time.Second, merged.Visual.PollInterval)
	assert.Equal(t, "https://queue.fal.run", merged.Visual.BaseURL)
	assert.Equal(t, "eleven_monolingual_v1", merged.Narration.ModelID)
	assert.Equal(t, "stage", merged.Render.Stage)
	assert.Equal(t, "default", merged.Pipeline.StyleFallback)
	assert.Equal(t, "play_through", merged.Pipeline.AudioPolicy)
	assert.Equal(t, 3, merged.Retry.MaxAttempts)
	assert.InDelta(t, 0.8, merged.LLM.Temperature, 0.0001)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bad provider", mutate: func(c *Config) { c.LLM.Provider = "claude" }, wantErr: "llm.provider"},
		{name: "bad backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: "storage.backend"},
		{name: "bad fallback", mutate: func(c *Config) { c.Pipeline.StyleFallback = "maybe" }, wantErr: "style_fallback"},
		{name: "bad audio policy", mutate: func(c *Config) { c.Pipeline.AudioPolicy = "stretch" }, wantErr: "audio_policy"},
		{name: "negative attempts", mutate: func(c *Config) { c.Visual.MaxAttempts = -1 }, wantErr: "max_attempts"},
		{name: "temperature out of range", mutate: func(c *Config) { c.LLM.Temperature = 3 }, wantErr: "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("AUDIO_POLICY", "clamp")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "clamp", cfg.Pipeline.AudioPolicy)
	assert.Equal(t, "fs", cfg.Storage.Backend)
}
