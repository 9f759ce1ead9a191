package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), DefaultGeminiConfig(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestGeminiClient_Models(t *testing.T) {
	client, err := NewGeminiClient(t.Context(), DefaultGeminiConfig().WithModel(TierStandard, "gemini-1.5-pro"), "g-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, "gemini-1.5-pro", client.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash", client.GetModel(TierLite))
}

func TestGeminiClient_GenerateJSON_NoModelForTier(t *testing.T) {
	client, err := NewGeminiClient(t.Context(), &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}, "g-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.GenerateJSON(t.Context(), Request{Prompt: "Write a script.", Tier: TierStandard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model configured")
}

func TestNewClient_SelectsProvider(t *testing.T) {
	gemini, err := NewClient(t.Context(), DefaultGeminiConfig(), "g-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = gemini.Close() })
	assert.IsType(t, &GeminiClient{}, gemini)

	_, err = NewClient(t.Context(), &Config{Provider: "claude"}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestExtractTextFromResponse(t *testing.T) {
	tests := []struct {
		name      string
		resp      *genai.GenerateContentResponse
		want      string
		wantError string
	}{
		{name: "nil response", wantError: "no candidates"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantError: "no candidates"},
		{
			name:      "candidate without content",
			resp:      &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			wantError: "no content",
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}}},
			}}},
			wantError: "no text parts",
		},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{
					genai.Text(`{"title":`),
					genai.Blob{MIMEType: "image/png", Data: []byte{1}},
					genai.Text(`"Launch"}`),
				}},
			}}},
			want: `{"title":"Launch"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTextFromResponse(tt.resp)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
