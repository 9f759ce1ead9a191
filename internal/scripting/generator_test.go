package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/reel-studio/internal/llm"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	response string
	err      error
	last     llm.Request
	calls    int
}

func (m *mockLLM) GenerateJSON(_ context.Context, req llm.Request) (string, error) {
	m.calls++
	m.last = req
	return m.response, m.err
}

func (m *mockLLM) GetModel(llm.ModelTier) string { return "mock" }

func (m *mockLLM) Close() error { return nil }

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func cinematic() *types.StyleProfile {
	return &types.StyleProfile{Key: "cinematic", Name: "Cinematic", Guide: "Use dramatic lighting and crane shots."}
}

func scriptJSON(durations []int, transitions ...string) string {
	scenes := make([]string, len(durations))
	for i, d := range durations {
		transition := "fade"
		if i < len(transitions) {
			transition = transitions[i]
		}
		scenes[i] = fmt.Sprintf(`{"scene_number": %d, "visual_prompt": "Wide aerial shot of scene %d. Golden hour light rakes across the hills.", "voiceover": "Line %d.", "duration_seconds": %d, "transition": %q}`,
			i+1, i+1, i+1, d, transition)
	}
	return `{"title": "Dawn Over The Valley", "style": "ignored", "scenes": [` + strings.Join(scenes, ",") + `]}`
}

func newTestGenerator(client llm.Client, opts ...Option) *Generator {
	return NewGenerator(client, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestGenerate_Success(t *testing.T) {
	client := &mockLLM{response: "Here you go:\n```json\n" + scriptJSON([]int{10, 10, 10}, "fade", "CUT", "spin") + "\n```"}

	script, err := newTestGenerator(client).Generate(t.Context(), Input{
		Idea:          "sunrise over a vineyard",
		Tone:          "Inspiring",
		DurationLabel: "30s",
		TotalSeconds:  30,
		Style:         cinematic(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Dawn Over The Valley", script.Title)
	assert.Equal(t, 30, script.TotalDuration)
	assert.Equal(t, "cinematic", script.Style)
	assert.Equal(t, "sunrise over a vineyard", script.UserIdea)
	assert.Equal(t, fixedNow, script.GeneratedAt)
	require.Len(t, script.Scenes, 3)
	assert.Equal(t, types.TransitionCut, script.Scenes[1].Transition)
	assert.Equal(t, types.TransitionFade, script.Scenes[2].Transition)

	assert.Equal(t, llm.TierStandard, client.last.Tier)
	assert.Equal(t, DefaultTemperature, client.last.Temperature)
	assert.NotEmpty(t, client.last.System)
	assert.Contains(t, client.last.Prompt, "sunrise over a vineyard")
	assert.Contains(t, client.last.Prompt, "Use dramatic lighting and crane shots.")
	assert.Contains(t, client.last.Prompt, "exactly 3 scenes")
	assert.Contains(t, client.last.Prompt, "10, 10, 10")
	assert.Contains(t, client.last.Prompt, "Inspiring")
	assert.NotContains(t, client.last.Prompt, "{{.")
}

func TestGenerate_SceneCountsPerBucket(t *testing.T) {
	for _, total := range []int{15, 30, 60, 120} {
		t.Run(fmt.Sprintf("%ds", total), func(t *testing.T) {
			plan := PlanDurations(total)
			client := &mockLLM{response: scriptJSON(plan)}

			script, err := newTestGenerator(client).Generate(t.Context(), Input{
				Idea: "idea", TotalSeconds: total, Style: cinematic(),
			})
			require.NoError(t, err)
			assert.Equal(t, total, script.DurationSum())
			for i, scene := range script.Scenes {
				assert.Equal(t, i+1, scene.SceneNumber)
			}
			assert.Contains(t, client.last.Prompt, fmt.Sprintf("exactly %d scenes", len(plan)))
		})
	}
}

func TestGenerate_RepairsDurations(t *testing.T) {
	client := &mockLLM{response: scriptJSON([]int{8, 8, 8, 8})}

	script, err := newTestGenerator(client).Generate(t.Context(), Input{Idea: "idea", TotalSeconds: 60, Style: cinematic()})
	require.NoError(t, err)
	assert.Equal(t, 60, script.DurationSum())
	assert.Equal(t, 15, script.Scenes[0].DurationSeconds)
}

func TestGenerate_RepairDisabled(t *testing.T) {
	client := &mockLLM{response: scriptJSON([]int{8, 8, 8})}

	_, err := newTestGenerator(client, WithRepairDurations(false)).Generate(t.Context(), Input{Idea: "idea", TotalSeconds: 30, Style: cinematic()})
	var validation *ValidationError
	require.True(t, errors.As(err, &validation))

	var field *types.ValidationError
	require.True(t, errors.As(err, &field))
	assert.Equal(t, "scenes", field.Field)
}

func TestGenerate_InvalidResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no scenes key", response: `{"title": "x"}`},
		{name: "empty scenes", response: `{"title": "x", "scenes": []}`},
		{name: "empty narration", response: strings.Replace(scriptJSON([]int{10, 10, 10}), `"Line 2."`, `""`, 1)},
		{name: "too few scenes", response: scriptJSON([]int{15, 15})},
		{name: "too many scenes", response: scriptJSON([]int{6, 6, 6, 6, 6})},
		{name: "malformed json", response: `{"title": "x", "scenes": [`},
		{name: "not json", response: "I cannot help with that."},
		{name: "gap in numbering", response: strings.Replace(scriptJSON([]int{10, 10, 10}), `"scene_number": 2`, `"scene_number": 5`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestGenerator(&mockLLM{response: tt.response}).Generate(t.Context(), Input{
				Idea: "idea", TotalSeconds: 30, Style: cinematic(),
			})
			var validation *ValidationError
			assert.True(t, errors.As(err, &validation), "got %v", err)
		})
	}
}

func TestGenerate_InputErrors(t *testing.T) {
	client := &mockLLM{}
	g := newTestGenerator(client)

	_, err := g.Generate(t.Context(), Input{Idea: "  ", TotalSeconds: 30, Style: cinematic()})
	var field *types.ValidationError
	require.True(t, errors.As(err, &field))
	assert.Equal(t, "idea", field.Field)

	_, err = g.Generate(t.Context(), Input{Idea: "idea", TotalSeconds: 30})
	require.True(t, errors.As(err, &field))
	assert.Equal(t, "style", field.Field)

	assert.Equal(t, 0, client.calls)
}

func TestGenerate_LLMError(t *testing.T) {
	client := &mockLLM{err: errors.New("rate limited")}
	_, err := newTestGenerator(client).Generate(t.Context(), Input{Idea: "idea", TotalSeconds: 30, Style: cinematic()})
	assert.ErrorContains(t, err, "rate limited")

	var validation *ValidationError
	assert.False(t, errors.As(err, &validation))
}
