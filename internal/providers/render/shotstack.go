// Package render submits timeline documents to Shotstack and reads render status.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonathan/reel-studio/internal/composition"
	"github.com/jonathan/reel-studio/internal/fetch"
	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/rs/zerolog"
)

// Defaults for the Shotstack edit API.
const (
	DefaultBaseURL = "https://api.shotstack.io"
	DefaultStage   = "stage"
)

// Status is a render state reported by Shotstack.
type Status string

// Render states. Only done and failed are terminal.
const (
	StatusQueued    Status = "queued"
	StatusFetching  Status = "fetching"
	StatusRendering Status = "rendering"
	StatusSaving    Status = "saving"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Report is the decoded status of one render.
type Report struct {
	ID     string
	Status Status
	URL    string
	Error  string
}

// SubmissionFailedError means the render service did not accept the timeline.
type SubmissionFailedError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *SubmissionFailedError) Error() string {
	return "render submission failed: " + e.Message
}

func (e *SubmissionFailedError) Unwrap() error {
	return e.Cause
}

// StatusError means a status check could not be completed.
type StatusError struct {
	RenderID string
	Message  string
	Cause    error
}

func (e *StatusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render status %s: %s: %v", e.RenderID, e.Message, e.Cause)
	}
	return fmt.Sprintf("render status %s: %s", e.RenderID, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Stage   string
	Retry   retry.Policy
	Logger  zerolog.Logger
}

// Client talks to the Shotstack edit API.
type Client struct {
	baseURL string
	stage   string
	http    *fetch.Client
	policy  retry.Policy
	logger  zerolog.Logger
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Stage == "" {
		opts.Stage = DefaultStage
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		stage:   strings.Trim(opts.Stage, "/"),
		http:    fetch.NewClient(fetch.DefaultTimeout, map[string]string{"x-api-key": apiKey}),
		policy:  opts.Retry,
		logger:  opts.Logger,
	}
}

type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		Status  string `json:"status"`
		URL     string `json:"url"`
		Error   string `json:"error"`
	} `json:"response"`
}

// Submit posts the edit and returns the render id. It does not wait for the render.
func (c *Client) Submit(ctx context.Context, edit *composition.Edit) (string, error) {
	if edit == nil {
		return "", &SubmissionFailedError{Message: "no timeline to render"}
	}

	// A repeated POST can start a second render, so only unsent requests are retried.
	env, err := retry.DoValueIf(ctx, c.policy, c.logger, "shotstack.submit", retry.IsTransientUnsent, func(ctx context.Context) (*envelope, error) {
		var out envelope
		resp, err := c.http.JSON(ctx, http.MethodPost, c.baseURL+"/"+c.stage+"/render", edit, &out)
		if err != nil {
			return decodeEnvelope(resp), err
		}
		return &out, nil
	})
	if err != nil {
		failure := &SubmissionFailedError{Message: "Failed to start render", Cause: err}
		if env != nil && env.Message != "" {
			failure.Message = env.Message
		}
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) {
			failure.StatusCode = statusErr.StatusCode
		}
		return "", failure
	}
	if env.Response.ID == "" {
		return "", &SubmissionFailedError{Message: "accepted response carried no render id"}
	}

	c.logger.Info().Str("render_id", env.Response.ID).Msg("render submitted")
	return env.Response.ID, nil
}

// StatusURL is the API location of a render's status.
func (c *Client) StatusURL(renderID string) string {
	return c.baseURL + "/" + c.stage + "/render/" + url.PathEscape(renderID)
}

// Status reads the current state of a render.
func (c *Client) Status(ctx context.Context, renderID string) (*Report, error) {
	if strings.TrimSpace(renderID) == "" {
		return nil, &StatusError{RenderID: renderID, Message: "render id is required"}
	}

	env, err := retry.DoValue(ctx, c.policy, c.logger, "shotstack.status", func(ctx context.Context) (*envelope, error) {
		var out envelope
		if _, err := c.http.JSON(ctx, http.MethodGet, c.StatusURL(renderID), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, &StatusError{RenderID: renderID, Message: "Shotstack API error", Cause: err}
	}

	return &Report{
		ID:     renderID,
		Status: Status(strings.ToLower(env.Response.Status)),
		URL:    env.Response.URL,
		Error:  env.Response.Error,
	}, nil
}

func decodeEnvelope(resp *fetch.Response) *envelope {
	if resp == nil || len(resp.Body) == 0 {
		return nil
	}
	var env envelope
	if json.Unmarshal(resp.Body, &env) != nil {
		return nil
	}
	return &env
}
