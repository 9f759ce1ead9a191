package composition

import (
	"fmt"
	"strings"

	"github.com/jonathan/reel-studio/internal/types"
)

// AudioPolicy decides how narration clips relate to their scene's length.
type AudioPolicy string

const (
	// AudioPlayThrough lets narration run to its natural end, possibly past the scene.
	AudioPlayThrough AudioPolicy = "play_through"
	// AudioClampToScene trims narration to the scene duration.
	AudioClampToScene AudioPolicy = "clamp"
)

// ParseAudioPolicy accepts "play_through" (default when empty) or "clamp".
func ParseAudioPolicy(value string) (AudioPolicy, error) {
	switch AudioPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", AudioPlayThrough:
		return AudioPlayThrough, nil
	case AudioClampToScene:
		return AudioClampToScene, nil
	default:
		return "", fmt.Errorf("unknown audio policy %q", value)
	}
}

// InputError reports a script/asset list that cannot be composed.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return "composition: " + e.Message
}

const (
	background   = "#000000"
	outputFormat = "mp4"
	fitCover     = "cover"
)

// Build lays the scenes out back to back: a visual track on top and a
// narration track underneath, each clip starting at the running sum of the
// previous scene durations.
func Build(script *types.Script, assets []types.SceneAsset, frameSize string, policy AudioPolicy) (*Edit, error) {
	if script == nil || len(script.Scenes) == 0 {
		return nil, &InputError{Message: "script has no scenes"}
	}
	if len(assets) != len(script.Scenes) {
		return nil, &InputError{Message: fmt.Sprintf("got %d assets for %d scenes", len(assets), len(script.Scenes))}
	}
	if policy == "" {
		policy = AudioPlayThrough
	}

	visualClips := make([]Clip, 0, len(script.Scenes))
	audioClips := make([]Clip, 0, len(script.Scenes))

	start := 0
	for i, scene := range script.Scenes {
		asset := assets[i]
		if scene.DurationSeconds <= 0 {
			return nil, &InputError{Message: fmt.Sprintf("scene %d has non-positive duration", scene.SceneNumber)}
		}
		if asset.VisualURL == "" {
			return nil, &InputError{Message: fmt.Sprintf("scene %d has no visual", scene.SceneNumber)}
		}

		transitionIn := string(types.TransitionFade)
		if i > 0 {
			transitionIn = string(types.NormalizeTransition(string(scene.Transition)))
		}

		visualClips = append(visualClips, Clip{
			Asset:      visualAsset(asset.VisualURL),
			Start:      start,
			Length:     intPtr(scene.DurationSeconds),
			Transition: &Transition{In: transitionIn, Out: string(types.TransitionFade)},
			Fit:        fitCover,
			Scale:      floatPtr(1),
		})

		if asset.AudioURL != "" {
			clip := Clip{
				Asset: Asset{Type: AssetAudio, Src: asset.AudioURL, Volume: floatPtr(1)},
				Start: start,
			}
			if policy == AudioClampToScene {
				clip.Length = intPtr(scene.DurationSeconds)
			}
			audioClips = append(audioClips, clip)
		}

		start += scene.DurationSeconds
	}

	geometry := GeometryFor(frameSize)
	return &Edit{
		Timeline: Timeline{
			Background: background,
			Tracks: []Track{
				{Clips: visualClips},
				{Clips: audioClips},
			},
		},
		Output: Output{
			Format:     outputFormat,
			Resolution: geometry.Resolution,
			Size:       Size{Width: geometry.Width, Height: geometry.Height},
		},
	}, nil
}

// visualAsset mutes video sources so only the narration track is heard.
func visualAsset(src string) Asset {
	if IsVideoURL(src) {
		return Asset{Type: AssetVideo, Src: src, Volume: floatPtr(0)}
	}
	return Asset{Type: AssetImage, Src: src}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
