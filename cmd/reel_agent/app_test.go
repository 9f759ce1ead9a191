package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/reel-studio/internal/config"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/llm"
	"github.com/jonathan/reel-studio/internal/storage"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "assets")
	return &app{cfg: &cfg, logger: zerolog.Nop()}
}

func TestLLMConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LLMConfig
		provider  llm.Provider
		model     string
		baseURL   string
		apiKey    string
		wantError string
	}{
		{
			name:     "openai with gateway",
			cfg:      config.LLMConfig{Provider: "openai", OpenAIKey: "sk-test", OpenAIModel: "gpt-4o-mini", OpenAIBaseURL: "http://gateway.local/v1"},
			provider: llm.ProviderOpenAI,
			model:    "gpt-4o-mini",
			baseURL:  "http://gateway.local/v1",
			apiKey:   "sk-test",
		},
		{
			name:     "gemini",
			cfg:      config.LLMConfig{Provider: "gemini", GeminiKey: "g-test", GeminiModel: "gemini-1.5-pro"},
			provider: llm.ProviderGemini,
			model:    "gemini-1.5-pro",
			apiKey:   "g-test",
		},
		{
			name:     "unknown provider falls back to openai",
			cfg:      config.LLMConfig{Provider: "other", OpenAIKey: "sk-test"},
			provider: llm.ProviderOpenAI,
			model:    "gpt-4o",
			apiKey:   "sk-test",
		},
		{
			name:      "missing key",
			cfg:       config.LLMConfig{Provider: "gemini", OpenAIKey: "sk-test"},
			wantError: "gemini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, apiKey, err := llmConfig(tt.cfg)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, lc.Provider)
			assert.Equal(t, tt.model, lc.GetModel(llm.TierStandard))
			assert.Equal(t, tt.baseURL, lc.BaseURL)
			assert.Equal(t, tt.apiKey, apiKey)
		})
	}
}

func TestObjectStore_FileBackend(t *testing.T) {
	a := testApp(t)

	store, err := a.objectStore(t.Context())
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, store)
}

func TestObjectStore_SupabaseRequiresCredentials(t *testing.T) {
	a := testApp(t)
	a.cfg.Storage.Backend = "supabase"

	_, err := a.objectStore(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestCoordinator_RequiresProviderKeys(t *testing.T) {
	a := testApp(t)

	_, err := a.coordinator(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAL_KEY")

	a.cfg.Visual.APIKey = "fal-test"
	_, err = a.coordinator(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
}

func TestTracker_RequiresRenderKey(t *testing.T) {
	a := testApp(t)

	_, err := a.tracker(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOTSTACK_API_KEY")

	a.cfg.Render.APIKey = "sk-render"
	tr, err := a.tracker(t.Context(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tr)
}

func TestOpenDB_WithoutURL(t *testing.T) {
	a := testApp(t)
	a.cfg.DatabaseURL = ""

	database, err := a.openDB(t.Context(), false)
	require.NoError(t, err)
	assert.Nil(t, database)

	_, err = a.openDB(t.Context(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, splitList(" http://a.test, ,http://b.test "))
	assert.Empty(t, splitList(""))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", " "))
}

func TestGenerationRequestFromFlags(t *testing.T) {
	saved := []string{genIdea, genDuration, genStyle, genVoiceID, genFrameSize, genTone}
	t.Cleanup(func() {
		genIdea, genDuration, genStyle, genVoiceID, genFrameSize, genTone = saved[0], saved[1], saved[2], saved[3], saved[4], saved[5]
	})

	genIdea, genDuration, genStyle, genVoiceID, genFrameSize, genTone = "", "60s", "anime", "", "16:9", ""

	req, err := generationRequestFromFlags([]string{"a", "fox", "in", "snow"})
	require.NoError(t, err)
	assert.Equal(t, "a fox in snow", req.Idea)
	assert.Equal(t, "60s", req.Duration)
	assert.Equal(t, "anime", req.Style)
	assert.Equal(t, types.DefaultVoiceID, req.VoiceID)
	assert.Equal(t, types.DefaultTone, req.Tone)

	genIdea = "  flag idea  "
	req, err = generationRequestFromFlags([]string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, "flag idea", req.Idea)

	genIdea = ""
	_, err = generationRequestFromFlags(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idea is required")

	genIdea, genDuration = "ok", "45s"
	_, err = generationRequestFromFlags(nil)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "duration", verr.Field)
}

type scriptedChecker struct {
	mu      sync.Mutex
	results []*tracker.Result
	err     error
	calls   int
}

func (c *scriptedChecker) Check(_ context.Context, renderID string) (*tracker.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	idx := min(c.calls-1, len(c.results)-1)
	res := *c.results[idx]
	res.RenderID = renderID
	return &res, nil
}

func TestWaitForRender(t *testing.T) {
	processing := &tracker.Result{Status: db.StatusProcessing}
	done := &tracker.Result{Status: db.StatusCompleted, VideoURL: "https://cdn.test/video.mp4", Updated: true}

	t.Run("returns once terminal", func(t *testing.T) {
		checker := &scriptedChecker{results: []*tracker.Result{processing, processing, done}}

		res, err := waitForRender(t.Context(), checker, "r-1", time.Millisecond, time.Second)
		require.NoError(t, err)
		assert.Equal(t, db.StatusCompleted, res.Status)
		assert.Equal(t, "r-1", res.RenderID)
		assert.Equal(t, 3, checker.calls)
	})

	t.Run("stops on check error", func(t *testing.T) {
		checker := &scriptedChecker{err: errors.New("render service down")}

		_, err := waitForRender(t.Context(), checker, "r-2", time.Millisecond, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render service down")
		assert.Equal(t, 1, checker.calls)
	})

	t.Run("times out while processing", func(t *testing.T) {
		checker := &scriptedChecker{results: []*tracker.Result{processing}}

		res, err := waitForRender(t.Context(), checker, "r-3", time.Millisecond, 30*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "still")
		require.NotNil(t, res)
		assert.Equal(t, db.StatusProcessing, res.Status)
	})
}
