package server

import (
	"errors"
	"net/http"

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
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr  *types.ValidationError
		scriptErr      *scripting.ValidationError
		notFoundErr    *styles.NotFoundError
		timeoutErr     *assets.GenerationTimeoutError
		genFailedErr   *assets.GenerationFailedError
		voiceErr       *assets.VoiceGenerationFailedError
		visualErr      *visual.ProviderError
		narrationErr   *narration.ProviderError
		submissionErr  *render.SubmissionFailedError
		renderStateErr *render.StatusError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr), errors.As(err, &scriptErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrLeaseHeld):
		return http.StatusConflict
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &genFailedErr), errors.As(err, &voiceErr),
		errors.As(err, &visualErr), errors.As(err, &narrationErr),
		errors.As(err, &submissionErr), errors.As(err, &renderStateErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error envelope. Stage failures carry the user-facing stage text.
type errorBody struct {
	Error  string `json:"error"`
	Stage  string `json:"stage,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func newErrorBody(err error) errorBody {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		body := errorBody{Error: stageErr.Message, Stage: stageErr.Stage}
		if stageErr.Err != nil {
			body.Detail = stageErr.Err.Error()
		}
		if body.Error == "" {
			body.Error = body.Detail
		}
		return body
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return errorBody{Error: "internal server error"}
	}
	return errorBody{Error: err.Error()}
}
