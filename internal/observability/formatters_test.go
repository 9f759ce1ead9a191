package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/providers/render"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/stretchr/testify/assert"
)

func testScript() *types.Script {
	return &types.Script{
		Title:         "Dawn Patrol",
		TotalDuration: 30,
		Style:         "cinematic",
		Scenes: []types.Scene{
			{SceneNumber: 1, VisualPrompt: "Wide shot of a beach at dawn. Soft golden light.", Voiceover: "Every morning starts here.", DurationSeconds: 10, Transition: types.TransitionFade},
			{SceneNumber: 2, VisualPrompt: "Close-up of a cat on a surfboard, low angle.", Voiceover: "Meet Biscuit.", DurationSeconds: 10, Transition: types.TransitionCut},
			{SceneNumber: 3, VisualPrompt: "Aerial tracking shot of the wave breaking.", Voiceover: "She never misses a set.", DurationSeconds: 10, Transition: types.TransitionSlide},
		},
	}
}

func TestPrintScript(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScript(testScript())
	output := buf.String()

	assert.Contains(t, output, "SCRIPT")
	assert.Contains(t, output, "Dawn Patrol")
	assert.Contains(t, output, "30s across 3 scenes")
	assert.Contains(t, output, "#2  10s @ 10s  [cut]")
	assert.Contains(t, output, "#3  10s @ 20s  [slide]")
	assert.Contains(t, output, "Meet Biscuit.")
}

func TestPrintScript_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScript(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_LinesStayInsideBox(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 200))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintAssets(t *testing.T) {
	var buf bytes.Buffer
	script := testScript()
	assets := make([]types.SceneAsset, 0, len(script.Scenes))
	for _, scene := range script.Scenes {
		assets = append(assets, types.SceneAsset{
			Scene:      scene,
			VisualURL:  "https://cdn.example.com/visuals/a.mp4",
			AudioURL:   "https://cdn.example.com/audio/a.mp3",
			VisualKind: types.VisualVideo,
		})
	}

	NewPrinter(&buf).PrintAssets(assets)
	output := buf.String()

	assert.Contains(t, output, "Generated media for 3 scenes")
	assert.Contains(t, output, "visuals/a.mp4")
	assert.Contains(t, output, "audio/a.mp3")
	assert.NotContains(t, output, "more scenes")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&pipeline.Result{RenderID: "r-1", Status: db.StatusProcessing, StatusURL: "https://api.shotstack.io/stage/render/r-1", GenerationID: "g-1", RecordSaved: true})
	assert.Contains(t, buf.String(), "RENDER SUBMITTED")
	assert.Contains(t, buf.String(), "g-1")

	buf.Reset()
	p.PrintResult(&pipeline.Result{RenderID: "r-2", Status: db.StatusProcessing})
	assert.Contains(t, buf.String(), "not saved")
}

func TestPrintRenderCheck(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRenderCheck(&tracker.Result{
		RenderID:     "r-1",
		Status:       db.StatusCompleted,
		RenderStatus: render.StatusDone,
		VideoURL:     "https://cdn.shotstack.io/r-1.mp4",
		Updated:      true,
	})
	output := buf.String()

	assert.Contains(t, output, "completed (done) ✓updated")
	assert.Contains(t, output, "r-1.mp4")
}

func TestPrintGenerations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGenerations(nil)
	assert.Contains(t, buf.String(), "No generations yet")

	buf.Reset()
	reason := "Render failed"
	p.PrintGenerations([]db.Generation{
		{Idea: "cat surfing", Status: db.StatusFailed, Duration: "30s", ErrorMessage: &reason, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	output := buf.String()
	assert.Contains(t, output, "GENERATIONS (1)")
	assert.Contains(t, output, "2026-03-01")
	assert.Contains(t, output, "⚠ Render failed")
}

func TestPrintStyleAndConfig(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStyle(&types.StyleProfile{Key: "noir", Name: "Noir", Custom: true, Mood: "bleak"})
	assert.Contains(t, buf.String(), "Noir (custom)")
	assert.Contains(t, buf.String(), "bleak")

	buf.Reset()
	p.PrintStyleConfig("Retro", &types.StyleConfig{Mood: "warm", Lighting: "tungsten"})
	assert.Contains(t, buf.String(), "STYLE ANALYSIS")
	assert.Contains(t, buf.String(), "tungsten")
}
