package styles

import (
	"sort"
	"strings"

	"github.com/jonathan/reel-studio/internal/types"
)

// Preset keys.
const (
	Realistic = "realistic"
	Cinematic = "cinematic"
	Animated  = "animated"
	Artistic  = "artistic"
	Cartoon   = "cartoon"
)

var presets = map[string]types.StyleProfile{
	Realistic: {
		Key:  Realistic,
		Name: "Realistic",
		Guide: "Use photorealistic descriptions with natural lighting, real-world settings, and authentic details. " +
			"Camera angles should be documentary-style.",
		PromptSuffix: "photorealistic, natural lighting, real-world setting, authentic detail, documentary camera",
		Lighting:     "natural daylight",
		Camera:       "documentary-style, eye level",
		ColorPalette: "true-to-life",
		Mood:         "authentic",
	},
	Cinematic: {
		Key:  Cinematic,
		Name: "Cinematic",
		Guide: "Use dramatic lighting (golden hour, rim lighting), wide establishing shots, close-ups for emotion, " +
			"and Hollywood-style composition. Include camera movements like 'slow zoom', 'tracking shot', 'crane shot'.",
		PromptSuffix: "cinematic, dramatic lighting, shallow depth of field, slow zoom, tracking shot",
		Lighting:     "golden hour, rim lighting",
		Camera:       "wide establishing shots, emotional close-ups, crane and tracking moves",
		ColorPalette: "warm highlights, deep shadows",
		Mood:         "dramatic",
	},
	Animated: {
		Key:  Animated,
		Name: "Animated",
		Guide: "Use vibrant colors, exaggerated features, smooth motion blur, and cartoon-style lighting. " +
			"Specify '3D animated style' or '2D hand-drawn style'.",
		PromptSuffix: "3D animated style, vibrant colors, exaggerated features, smooth motion blur",
		Lighting:     "bright cartoon-style lighting",
		Camera:       "smooth animated camera moves",
		ColorPalette: "vibrant, saturated",
		Mood:         "playful",
	},
	Artistic: {
		Key:  Artistic,
		Name: "Artistic",
		Guide: "Use creative interpretations, unusual perspectives, painterly effects, and artistic lighting. " +
			"Reference art styles like 'impressionist', 'surreal', 'abstract'.",
		PromptSuffix: "painterly, impressionist, surreal, unusual perspective, artistic lighting",
		Lighting:     "expressive, artistic lighting",
		Camera:       "unusual perspectives",
		ColorPalette: "painterly tones",
		Mood:         "dreamlike",
	},
	Cartoon: {
		Key:  Cartoon,
		Name: "Cartoon",
		Guide: "Use bold outlines, bright colors, simplified shapes, and playful compositions. " +
			"Specify 'cartoon illustration style' with exaggerated expressions.",
		PromptSuffix: "cartoon illustration style, bold outlines, bright colors, simplified shapes",
		Lighting:     "flat, even lighting",
		Camera:       "playful framing, exaggerated expressions",
		ColorPalette: "bright primary colors",
		Mood:         "lighthearted",
	},
}

// Preset returns the built-in profile for key, matched case-insensitively.
func Preset(key string) (types.StyleProfile, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

// Config returns the structured directives of a profile.
func Config(p types.StyleProfile) types.StyleConfig {
	return types.StyleConfig{
		VisualPromptSuffix: p.PromptSuffix,
		Lighting:           p.Lighting,
		Camera:             p.Camera,
		ColorPalette:       p.ColorPalette,
		Mood:               p.Mood,
	}
}

// DefaultProfile is the realistic preset.
func DefaultProfile() types.StyleProfile {
	return presets[Realistic]
}

// Presets lists the built-in profiles ordered by key.
func Presets() []types.StyleProfile {
	out := make([]types.StyleProfile, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
