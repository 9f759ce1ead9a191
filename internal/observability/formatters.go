// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, boxWidth-4)
		pad := boxWidth - 4 - len([]rune(line))
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress outputs one pipeline stage transition.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "▶ [%s] %s\n", event.Step, event.Message)
}

// PrintStyle outputs the resolved style profile.
func (p *Printer) PrintStyle(profile *types.StyleProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	kind := "preset"
	if profile.Custom {
		kind = "custom"
	}
	sb.WriteString(fmt.Sprintf("Style:    %s (%s)\n", profile.Name, kind))
	if profile.Mood != "" {
		sb.WriteString(fmt.Sprintf("Mood:     %s\n", profile.Mood))
	}
	if profile.Lighting != "" {
		sb.WriteString(fmt.Sprintf("Lighting: %s\n", profile.Lighting))
	}
	if profile.Camera != "" {
		sb.WriteString(fmt.Sprintf("Camera:   %s\n", profile.Camera))
	}

	p.printBox("STYLE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScript outputs the generated scene list with durations and transitions.
func (p *Printer) PrintScript(script *types.Script) {
	if script == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", script.Title))
	sb.WriteString(fmt.Sprintf("Duration: %ds across %d scenes\n", script.TotalDuration, len(script.Scenes)))
	sb.WriteString(fmt.Sprintf("Style:    %s\n", script.Style))

	starts := script.SceneStarts()
	for i, scene := range script.Scenes {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("#%d  %ds @ %ds  [%s]\n", scene.SceneNumber, scene.DurationSeconds, starts[i], scene.Transition))
		sb.WriteString(fmt.Sprintf("    Visual: %s\n", truncate(scene.VisualPrompt, 44)))
		sb.WriteString(fmt.Sprintf("    Voice:  %s\n", truncate(scene.Voiceover, 44)))
	}

	p.printBox("SCRIPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAssets outputs the stored media for each scene.
func (p *Printer) PrintAssets(assets []types.SceneAsset) {
	if len(assets) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated media for %d scenes:\n", len(assets)))

	count := min(len(assets), maxItemsToShow)
	for i := range count {
		a := assets[i]
		sb.WriteString(fmt.Sprintf("\n#%d  %s\n", a.Scene.SceneNumber, a.VisualKind))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(a.VisualURL, 52)))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(a.AudioURL, 52)))
	}
	if len(assets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more scenes\n", len(assets)-maxItemsToShow))
	}

	p.printBox("SCENE ASSETS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs the submitted render and its record.
func (p *Printer) PrintResult(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Render:   %s\n", result.RenderID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", result.Status))
	if result.RecordSaved {
		sb.WriteString(fmt.Sprintf("Record:   %s\n", result.GenerationID))
	} else {
		sb.WriteString("Record:   not saved\n")
	}
	sb.WriteString(fmt.Sprintf("Check:    %s", result.StatusURL))

	p.printBox("RENDER SUBMITTED", sb.String())
}

// PrintRenderCheck outputs the outcome of one render status check.
func (p *Printer) PrintRenderCheck(result *tracker.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Render:   %s\n", result.RenderID))
	sb.WriteString(fmt.Sprintf("Status:   %s", result.Status))
	if result.RenderStatus != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", result.RenderStatus))
	}
	if result.Updated {
		sb.WriteString(" ✓updated")
	}
	if result.VideoURL != "" {
		sb.WriteString(fmt.Sprintf("\nVideo:    %s", result.VideoURL))
	}
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("\nError:    %s", result.Error))
	}

	p.printBox("RENDER STATUS", sb.String())
}

// PrintGenerations outputs a listing of generation records.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGenerations(gens []db.Generation) {
	if len(gens) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "No generations yet")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, g := range gens {
		sb.WriteString(fmt.Sprintf("%s  %-10s %s\n", g.CreatedAt.Format(time.DateOnly), g.Status, g.Duration))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(g.Idea, 50)))
		if g.VideoURL != nil {
			sb.WriteString(fmt.Sprintf("  %s\n", truncate(*g.VideoURL, 50)))
		}
		if g.ErrorMessage != nil {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", truncate(*g.ErrorMessage, 48)))
		}
		if i < len(gens)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("GENERATIONS (%d)", len(gens)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStyleConfig outputs an analyzed or stored style configuration.
func (p *Printer) PrintStyleConfig(name string, cfg *types.StyleConfig) {
	if cfg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", name))
	sb.WriteString(fmt.Sprintf("Mood:     %s\n", cfg.Mood))
	sb.WriteString(fmt.Sprintf("Lighting: %s\n", cfg.Lighting))
	sb.WriteString(fmt.Sprintf("Camera:   %s\n", cfg.Camera))
	sb.WriteString(fmt.Sprintf("Palette:  %s\n", cfg.ColorPalette))
	sb.WriteString(fmt.Sprintf("Suffix:   %s", cfg.VisualPromptSuffix))

	p.printBox("STYLE ANALYSIS", sb.String())
}
