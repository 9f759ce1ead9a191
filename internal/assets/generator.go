// Package assets produces and stores the visual and narration media for every scene.
package assets

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jonathan/reel-studio/internal/composition"
	"github.com/jonathan/reel-studio/internal/providers/narration"
	"github.com/jonathan/reel-studio/internal/providers/visual"
	"github.com/jonathan/reel-studio/internal/storage"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultVisualExt   = ".mp4"
	audioExt           = ".mp3"
	audioContentType   = "audio/mpeg"
	defaultVisualMedia = "video/mp4"
)

// Generator fans out visual and narration work for all scenes of a script.
type Generator struct {
	visual    visual.Provider
	narration narration.Provider
	store     storage.ObjectStore
	poller    *Poller
	logger    zerolog.Logger
}

// NewGenerator wires the providers and object store together.
func NewGenerator(v visual.Provider, n narration.Provider, store storage.ObjectStore, poller *Poller, logger zerolog.Logger) *Generator {
	if poller == nil {
		poller = NewPoller(v, DefaultPollInterval, DefaultMaxAttempts, logger)
	}
	return &Generator{visual: v, narration: n, store: store, poller: poller, logger: logger}
}

// Generate produces one SceneAsset per scene, in scene order. Every scene's visual and
// audio run concurrently; the first failure cancels the rest and is returned.
func (g *Generator) Generate(ctx context.Context, scenes []types.Scene, voiceID, frameSize string) ([]types.SceneAsset, error) {
	if len(scenes) == 0 {
		return nil, &types.ValidationError{Field: "scenes", Message: "no scenes to generate assets for"}
	}
	if voiceID == "" {
		voiceID = types.DefaultVoiceID
	}
	aspect := visual.AspectFor(frameSize)

	results := make([]types.SceneAsset, len(scenes))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, scene := range scenes {
		results[i].Scene = scene

		eg.Go(func() error {
			visualURL, kind, err := g.generateVisual(egCtx, scene, aspect)
			if err != nil {
				return err
			}
			results[i].VisualURL = visualURL
			results[i].VisualKind = kind
			return nil
		})

		eg.Go(func() error {
			audioURL, err := g.generateAudio(egCtx, scene, voiceID)
			if err != nil {
				return err
			}
			results[i].AudioURL = audioURL
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info().Int("scenes", len(scenes)).Msg("scene assets generated")
	return results, nil
}

func (g *Generator) generateVisual(ctx context.Context, scene types.Scene, aspect string) (string, types.VisualKind, error) {
	submitted, err := g.visual.Submit(ctx, scene.VisualPrompt, aspect)
	if err != nil {
		return "", "", &GenerationFailedError{Scene: scene.SceneNumber, Message: "submission rejected", Cause: err}
	}

	var mediaURL string
	switch r := submitted.(type) {
	case visual.Direct:
		mediaURL = r.MediaURL
	case visual.Queued:
		g.logger.Debug().Int("scene", scene.SceneNumber).Str("request_id", r.RequestID).Msg("visual job queued")
		mediaURL, err = g.poller.Wait(ctx, scene.SceneNumber, r.RequestID)
		if err != nil {
			return "", "", err
		}
	default:
		return "", "", &GenerationFailedError{Scene: scene.SceneNumber, Message: fmt.Sprintf("unexpected submit result %T", submitted)}
	}
	if strings.TrimSpace(mediaURL) == "" {
		return "", "", &GenerationFailedError{Scene: scene.SceneNumber, Message: "provider returned no media"}
	}

	media, err := g.visual.Download(ctx, mediaURL)
	if err != nil {
		return "", "", &GenerationFailedError{Scene: scene.SceneNumber, Message: "download failed", Cause: err}
	}

	contentType, ext := visualMediaType(media.ContentType, mediaURL)
	key := storage.NewKey(storage.PrefixVisuals, ext)
	publicURL, err := g.store.Put(ctx, key, media.Data, contentType)
	if err != nil {
		return "", "", fmt.Errorf("scene %d: failed to store visual: %w", scene.SceneNumber, err)
	}

	kind := types.VisualImage
	if composition.IsVideoURL(publicURL) {
		kind = types.VisualVideo
	}
	return publicURL, kind, nil
}

func (g *Generator) generateAudio(ctx context.Context, scene types.Scene, voiceID string) (string, error) {
	audio, err := g.narration.Synthesize(ctx, scene.Voiceover, voiceID)
	if err != nil {
		return "", &VoiceGenerationFailedError{Scene: scene.SceneNumber, Cause: err}
	}
	if len(audio.Data) == 0 {
		return "", &VoiceGenerationFailedError{Scene: scene.SceneNumber, Cause: fmt.Errorf("empty audio")}
	}

	key := storage.NewKey(storage.PrefixAudio, audioExt)
	publicURL, err := g.store.Put(ctx, key, audio.Data, audioContentType)
	if err != nil {
		return "", fmt.Errorf("scene %d: failed to store audio: %w", scene.SceneNumber, err)
	}
	return publicURL, nil
}

// visualMediaType picks the stored content type and key extension for a downloaded visual.
// The extension decides how the composition treats the asset, so it follows the media type
// first and the source URL second.
func visualMediaType(contentType, sourceURL string) (string, string) {
	if ext := storage.ExtensionForContentType(contentType); ext != "" {
		return contentType, ext
	}
	if u, err := url.Parse(sourceURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		switch ext {
		case ".mp4":
			return "video/mp4", ext
		case ".mov":
			return "video/quicktime", ext
		case ".webm":
			return "video/webm", ext
		case ".png":
			return "image/png", ext
		case ".webp":
			return "image/webp", ext
		case ".jpg", ".jpeg":
			return "image/jpeg", ".jpg"
		}
	}
	return defaultVisualMedia, defaultVisualExt
}
