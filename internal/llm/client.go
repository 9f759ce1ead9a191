package llm

import (
	"context"
	"fmt"
)

// Request is one JSON-mode completion request.
type Request struct {
	System      string
	Prompt      string
	Tier        ModelTier
	Temperature float32
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateJSON returns the model's JSON answer with any code fences removed
	GenerateJSON(ctx context.Context, req Request) (string, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI, "":
		return NewOpenAIClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}
