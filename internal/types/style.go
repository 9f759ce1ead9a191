package types

// StyleConfig holds the structured directives of a custom style.
type StyleConfig struct {
	VisualPromptSuffix string `json:"visual_prompt_suffix" yaml:"visual_prompt_suffix"`
	Lighting           string `json:"lighting" yaml:"lighting"`
	Camera             string `json:"camera" yaml:"camera"`
	ColorPalette       string `json:"color_palette" yaml:"color_palette"`
	Mood               string `json:"mood" yaml:"mood"`
}

// StyleProfile is a resolved style guide used to condition generation for one run.
type StyleProfile struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Guide        string `json:"guide"`
	PromptSuffix string `json:"prompt_suffix,omitempty"`
	Lighting     string `json:"lighting,omitempty"`
	Camera       string `json:"camera,omitempty"`
	ColorPalette string `json:"color_palette,omitempty"`
	Mood         string `json:"mood,omitempty"`
	Custom       bool   `json:"custom"`
}
