package types

// VisualKind distinguishes still images from video clips.
type VisualKind string

// Visual kinds.
const (
	VisualImage VisualKind = "image"
	VisualVideo VisualKind = "video"
)

// SceneAsset pairs a scene with its stored visual and narration URLs.
type SceneAsset struct {
	Scene      Scene      `json:"scene"`
	VisualURL  string     `json:"visual_url"`
	AudioURL   string     `json:"audio_url"`
	VisualKind VisualKind `json:"visual_kind"`
}

// VisualURLs returns the visual URL of each asset in order.
func VisualURLs(assets []SceneAsset) []string {
	urls := make([]string, len(assets))
	for i, a := range assets {
		urls[i] = a.VisualURL
	}
	return urls
}

// AudioURLs returns the audio URL of each asset in order.
func AudioURLs(assets []SceneAsset) []string {
	urls := make([]string, len(assets))
	for i, a := range assets {
		urls[i] = a.AudioURL
	}
	return urls
}
