// Package storage persists generated media and returns system-owned public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Key prefixes used by the asset generator.
const (
	PrefixVisuals = "visuals"
	PrefixAudio   = "audio"
)

// ObjectStore stores bytes under a key and returns the public URL for them.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Error wraps a backend failure with the key being written.
type Error struct {
	Backend string
	Key     string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: put %s: %v", e.Backend, e.Key, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewKey returns "<prefix>/<uuid><ext>".
func NewKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

// ExtensionForContentType maps a media type to the file extension used for its key.
func ExtensionForContentType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	switch mediaType {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ""
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
