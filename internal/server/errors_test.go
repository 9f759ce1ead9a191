package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/reel-studio/internal/assets"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/providers/narration"
	"github.com/jonathan/reel-studio/internal/providers/render"
	"github.com/jonathan/reel-studio/internal/providers/visual"
	"github.com/jonathan/reel-studio/internal/scripting"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request validation", &types.ValidationError{Field: "idea", Message: "is required"}, http.StatusBadRequest},
		{"script validation", &scripting.ValidationError{Message: "expected 3 to 4 scenes"}, http.StatusBadRequest},
		{"style not found", &styles.NotFoundError{Selector: "noir"}, http.StatusNotFound},
		{"record not found", fmt.Errorf("generation x: %w", db.ErrNotFound), http.StatusNotFound},
		{"lease held", tracker.ErrLeaseHeld, http.StatusConflict},
		{"visual timeout", &assets.GenerationTimeoutError{Scene: 1, RequestID: "r", Attempts: 60}, http.StatusGatewayTimeout},
		{"visual failed", &assets.GenerationFailedError{Scene: 2, Message: "FAILED"}, http.StatusBadGateway},
		{"voice failed", &assets.VoiceGenerationFailedError{Scene: 1, Cause: &narration.ProviderError{StatusCode: 401, Message: "bad key"}}, http.StatusBadGateway},
		{"visual provider", &visual.ProviderError{Op: "submit", Message: "boom"}, http.StatusBadGateway},
		{"render submission", &render.SubmissionFailedError{StatusCode: 400, Message: "Bad timeline"}, http.StatusBadGateway},
		{"render status", &render.StatusError{RenderID: "abc", Message: "unreachable"}, http.StatusBadGateway},
		{"write error", &db.WriteError{Op: "create generation", Cause: errors.New("conn refused")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_ThroughStageError(t *testing.T) {
	err := &pipeline.StageError{
		Stage:   pipeline.StageAssets,
		Message: "Failed to generate scene media",
		Err:     &assets.GenerationTimeoutError{Scene: 3, RequestID: "req", Attempts: 60},
	}
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(err))

	body := newErrorBody(err)
	assert.Equal(t, "Failed to generate scene media", body.Error)
	assert.Equal(t, pipeline.StageAssets, body.Stage)
	assert.Contains(t, body.Detail, "timed out after 60 status checks")
}

func TestNewErrorBody_HidesInternalErrors(t *testing.T) {
	body := newErrorBody(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body.Error)

	body = newErrorBody(&types.ValidationError{Field: "idea", Message: "is required"})
	assert.Equal(t, "validation error in idea: is required", body.Error)
}
