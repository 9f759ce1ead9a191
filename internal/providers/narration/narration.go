// Package narration synthesizes voiceover audio through ElevenLabs text-to-speech.
package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonathan/reel-studio/internal/fetch"
	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/rs/zerolog"
)

// Defaults for the ElevenLabs API.
const (
	DefaultBaseURL         = "https://api.elevenlabs.io"
	DefaultModelID         = "eleven_monolingual_v1"
	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.5
)

// Audio is synthesized speech.
type Audio struct {
	Data        []byte
	ContentType string
}

// Provider is the narration contract used by the asset generator.
type Provider interface {
	Synthesize(ctx context.Context, text, voiceID string) (*Audio, error)
}

// ProviderError is a non-success response or transport failure.
type ProviderError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("narration provider returned %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("narration provider: %s: %v", e.Message, e.Cause)
	}
	return "narration provider: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// VoiceSettings tunes the synthesized voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Options configures an ElevenLabsClient.
type Options struct {
	BaseURL  string
	ModelID  string
	Settings VoiceSettings
	Retry    retry.Policy
	Logger   zerolog.Logger
}

// ElevenLabsClient implements Provider.
type ElevenLabsClient struct {
	opts Options
	http *fetch.Client
}

// NewElevenLabsClient creates a client authenticated with apiKey. Zero option
// values fall back to the package defaults.
func NewElevenLabsClient(apiKey string, opts Options) *ElevenLabsClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.ModelID == "" {
		opts.ModelID = DefaultModelID
	}
	if opts.Settings.Stability == 0 {
		opts.Settings.Stability = DefaultStability
	}
	if opts.Settings.SimilarityBoost == 0 {
		opts.Settings.SimilarityBoost = DefaultSimilarityBoost
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	return &ElevenLabsClient{
		opts: opts,
		http: fetch.NewClient(fetch.DefaultTimeout, map[string]string{
			"xi-api-key": apiKey,
			"Accept":     "audio/mpeg",
		}),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to speech with the given voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Message: "text is required"}
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, &ProviderError{Message: "voice id is required"}
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.opts.BaseURL, url.PathEscape(voiceID))
	body := ttsRequest{Text: text, ModelID: c.opts.ModelID, VoiceSettings: c.opts.Settings}

	resp, err := retry.DoValue(ctx, c.opts.Retry, c.opts.Logger, "elevenlabs.tts", func(ctx context.Context) (*fetch.Response, error) {
		return c.http.Do(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		if resp != nil {
			return nil, &ProviderError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body), Cause: err}
		}
		return nil, &ProviderError{Message: "request failed", Cause: err}
	}
	if len(resp.Body) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "empty audio body"}
	}

	contentType := resp.ContentType
	if !strings.HasPrefix(contentType, "audio/") {
		contentType = "audio/mpeg"
	}
	return &Audio{Data: resp.Body, ContentType: contentType}, nil
}

// errorMessage extracts detail.message (or a string detail) from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Detail) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Detail, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if json.Unmarshal(payload.Detail, &plain) == nil && plain != "" {
			return plain
		}
	}
	return "Failed to generate voice"
}
