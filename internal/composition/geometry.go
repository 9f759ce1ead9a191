package composition

import (
	"net/url"
	"path"
	"strings"
)

// Geometry is a concrete output frame.
type Geometry struct {
	Width      int
	Height     int
	Resolution string
}

// GeometryFor maps a requested frame size onto the fixed output table.
func GeometryFor(frameSize string) Geometry {
	switch strings.ToLower(strings.TrimSpace(frameSize)) {
	case "16:9", "landscape":
		return Geometry{Width: 1920, Height: 1080, Resolution: "1080"}
	case "9:16", "portrait":
		return Geometry{Width: 1080, Height: 1920, Resolution: "1080"}
	case "1:1", "square":
		return Geometry{Width: 1080, Height: 1080, Resolution: "1080"}
	default:
		return Geometry{Width: 1024, Height: 576, Resolution: "sd"}
	}
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// IsVideoURL reports whether the URL path ends in a video extension. Query
// strings and fragments are ignored.
func IsVideoURL(raw string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return videoExtensions[strings.ToLower(path.Ext(p))]
}
