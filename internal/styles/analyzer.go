package styles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/reel-studio/internal/llm"
	"github.com/jonathan/reel-studio/internal/prompts"
	"github.com/jonathan/reel-studio/internal/schemas"
	"github.com/jonathan/reel-studio/internal/types"
)

// AnalyzeRequest describes a style to turn into structured directives.
type AnalyzeRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	HasReference bool   `json:"has_reference"`
}

// Analyzer infers a StyleConfig from a style name and description.
type Analyzer struct {
	client llm.Client
}

// NewAnalyzer creates an analyzer backed by client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze asks the model for a style profile and validates its shape.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*types.StyleConfig, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &types.ValidationError{Field: "name", Message: "style name is required"}
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "No description provided"
	}
	reference := "None"
	if req.HasReference {
		reference = "Provided"
	}

	system, err := prompts.Get("style.json", "system")
	if err != nil {
		return nil, err
	}
	prompt, err := prompts.Render("style.json", "analyze_style", map[string]string{
		"StyleName":      name,
		"Description":    description,
		"ReferenceVideo": reference,
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.client.GenerateJSON(ctx, llm.Request{
		System: system,
		Prompt: prompt,
		Tier:   llm.TierStandard,
	})
	if err != nil {
		return nil, fmt.Errorf("style analysis failed: %w", err)
	}

	body := []byte(llm.CleanJSONBlock(raw))
	if err := schemas.ValidateBytes(schemas.StyleConfig, body); err != nil {
		return nil, fmt.Errorf("style analysis returned an invalid profile: %w", err)
	}

	var cfg types.StyleConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode style profile: %w", err)
	}
	return &cfg, nil
}
