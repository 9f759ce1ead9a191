// Package composition turns a script and its scene assets into the render
// service's timeline document. Everything here is pure: no I/O, no clock.
package composition

// Edit is the render request document.
type Edit struct {
	Timeline Timeline `json:"timeline"`
	Output   Output   `json:"output"`
}

// Timeline holds the tracks; the first track is drawn on top.
type Timeline struct {
	Background string  `json:"background"`
	Tracks     []Track `json:"tracks"`
}

// Track is an ordered list of clips.
type Track struct {
	Clips []Clip `json:"clips"`
}

// Clip places one asset on the timeline. Times are in seconds.
type Clip struct {
	Asset      Asset       `json:"asset"`
	Start      int         `json:"start"`
	Length     *int        `json:"length,omitempty"`
	Transition *Transition `json:"transition,omitempty"`
	Fit        string      `json:"fit,omitempty"`
	Scale      *float64    `json:"scale,omitempty"`
}

// Asset is the media referenced by a clip.
type Asset struct {
	Type   string   `json:"type"`
	Src    string   `json:"src"`
	Volume *float64 `json:"volume,omitempty"`
}

// Transition effects applied at clip boundaries.
type Transition struct {
	In  string `json:"in,omitempty"`
	Out string `json:"out,omitempty"`
}

// Output describes the rendered file.
type Output struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
	Size       Size   `json:"size"`
}

// Size is the output frame in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Asset types.
const (
	AssetVideo = "video"
	AssetImage = "image"
	AssetAudio = "audio"
)
