package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/observability"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [idea]",
	Short: "Generate one video from an idea",
	Long: `Runs the full pipeline once: resolve style -> write script -> generate visuals & voice ->
compose timeline -> submit render. The generation is recorded when DATABASE_URL is set.
With --wait the command keeps checking the render until the video is ready or failed.`,
	Example: `  reel_agent generate "a cat learning to surf at sunrise" --duration 30s --style cinematic --wait`,
	RunE:    runGenerate,
}

var (
	genIdea         string
	genDuration     string
	genStyle        string
	genVoiceID      string
	genFrameSize    string
	genTone         string
	genWait         bool
	genPollInterval time.Duration
	genTimeout      time.Duration
)

func init() {
	generateCmd.Flags().StringVarP(&genIdea, "idea", "i", "", "Video idea (or pass it as arguments)")
	generateCmd.Flags().StringVarP(&genDuration, "duration", "d", types.DefaultDuration, "Duration bucket: 15s, 30s, 60s or 120s")
	generateCmd.Flags().StringVarP(&genStyle, "style", "s", types.DefaultStyle, "Preset key or custom style id")
	generateCmd.Flags().StringVar(&genVoiceID, "voice", types.DefaultVoiceID, "Narration voice id")
	generateCmd.Flags().StringVar(&genFrameSize, "frame-size", "9:16", "Aspect: 16:9, 9:16, 1:1, landscape, portrait or square")
	generateCmd.Flags().StringVar(&genTone, "tone", types.DefaultTone, "Narration tone")
	generateCmd.Flags().BoolVarP(&genWait, "wait", "w", false, "Wait for the render to finish")
	generateCmd.Flags().DurationVar(&genPollInterval, "poll-interval", 10*time.Second, "Render status check interval with --wait")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 30*time.Minute, "Give up waiting after this long")

	rootCmd.AddCommand(generateCmd)
}

// generationRequestFromFlags builds the request from flags and positional arguments.
func generationRequestFromFlags(args []string) (types.GenerationRequest, error) {
	idea := strings.TrimSpace(genIdea)
	if idea == "" {
		idea = strings.TrimSpace(strings.Join(args, " "))
	}
	if idea == "" {
		return types.GenerationRequest{}, fmt.Errorf("an idea is required: pass --idea or positional text")
	}
	req := types.GenerationRequest{
		Idea:      idea,
		Duration:  genDuration,
		Style:     genStyle,
		VoiceID:   genVoiceID,
		FrameSize: genFrameSize,
		Tone:      genTone,
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, err := generationRequestFromFlags(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openDB(ctx, false)
	if err != nil {
		return err
	}
	coordinator, err := a.coordinator(ctx, database)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	result, err := coordinator.Run(ctx, req, progressPrinter(printer, verbose))
	if err != nil {
		return err
	}
	printer.PrintResult(result)

	if !genWait {
		return nil
	}
	checker, err := a.tracker(ctx, database)
	if err != nil {
		return err
	}
	final, err := waitForRender(ctx, checker, result.RenderID, genPollInterval, genTimeout)
	printer.PrintRenderCheck(final)
	if err != nil {
		return err
	}
	if final.Status == db.StatusFailed {
		return fmt.Errorf("render %s failed: %s", final.RenderID, final.Error)
	}
	return nil
}

// progressPrinter prints each stage; in verbose mode also the previous stage's output.
func progressPrinter(printer *observability.Printer, detailed bool) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		if detailed {
			switch content := event.Content.(type) {
			case *types.StyleProfile:
				printer.PrintStyle(content)
			case *types.Script:
				printer.PrintScript(content)
			case []types.SceneAsset:
				printer.PrintAssets(content)
			}
		}
		if event.Message != "" {
			printer.PrintProgress(event)
		}
	}
}

// renderChecker performs one render check.
type renderChecker interface {
	Check(ctx context.Context, renderID string) (*tracker.Result, error)
}

// waitForRender checks the render every interval until it is terminal or timeout elapses.
func waitForRender(ctx context.Context, checker renderChecker, renderID string, interval, timeout time.Duration) (*tracker.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	timer := time.NewTimer(0)
	defer timer.Stop()

	var last *tracker.Result
	for {
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("render %s still %s after %s", renderID, statusOf(last), timeout)
		case <-timer.C:
		}

		res, err := checker.Check(ctx, renderID)
		switch {
		case err == nil:
			last = res
			if res.Status != db.StatusProcessing {
				return res, nil
			}
		case ctx.Err() != nil:
			continue
		default:
			return last, err
		}
		timer.Reset(interval)
	}
}

func statusOf(res *tracker.Result) string {
	if res == nil {
		return db.StatusProcessing
	}
	return string(res.RenderStatus)
}
