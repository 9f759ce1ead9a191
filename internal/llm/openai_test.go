package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": "```json\n{\"title\":\"Launch\"}\n```",
				},
			}},
		})
	}))
	defer srv.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = srv.URL + "/"
	client, err := NewOpenAIClient(cfg, "sk-test")
	require.NoError(t, err)

	out, err := client.GenerateJSON(t.Context(), Request{
		System:      "You output JSON.",
		Prompt:      "Write a script.",
		Tier:        TierStandard,
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Launch"}`, out)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.InDelta(t, 0.8, captured["temperature"], 0.0001)
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = srv.URL
	client, err := NewOpenAIClient(cfg, "sk-test")
	require.NoError(t, err)

	_, err = client.GenerateJSON(t.Context(), Request{Prompt: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = srv.URL
	client, err := NewOpenAIClient(cfg, "sk-test")
	require.NoError(t, err)

	_, err = client.GenerateJSON(t.Context(), Request{Prompt: "x"})
	assert.ErrorContains(t, err, "failed to generate content")
}
