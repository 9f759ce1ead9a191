package visual

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jonathan/reel-studio/internal/fetch"
	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/rs/zerolog"
)

// Defaults for the fal.ai queue.
const (
	DefaultBaseURL = "https://queue.fal.run"
	DefaultModel   = "fal-ai/minimax-video"
)

// FalClient implements Provider against the fal.ai queue API.
type FalClient struct {
	baseURL string
	model   string
	http    *fetch.Client
	policy  retry.Policy
	logger  zerolog.Logger
}

// FalOption customizes a FalClient.
type FalOption func(*FalClient)

// WithBaseURL overrides the queue endpoint.
func WithBaseURL(u string) FalOption {
	return func(c *FalClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel overrides the model path.
func WithModel(model string) FalOption {
	return func(c *FalClient) {
		if model != "" {
			c.model = strings.Trim(model, "/")
		}
	}
}

// WithRetry sets the retry policy for every call.
func WithRetry(policy retry.Policy) FalOption {
	return func(c *FalClient) { c.policy = policy }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) FalOption {
	return func(c *FalClient) { c.logger = logger }
}

// NewFalClient creates a client authenticated with apiKey.
func NewFalClient(apiKey string, opts ...FalOption) *FalClient {
	c := &FalClient{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		http:    fetch.NewClient(fetch.DefaultTimeout, map[string]string{"Authorization": "Key " + apiKey}),
		policy:  retry.DefaultPolicy(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type falMedia struct {
	URL string `json:"url"`
}

type falPayload struct {
	RequestID string     `json:"request_id"`
	Status    string     `json:"status"`
	Error     string     `json:"error"`
	Detail    any        `json:"detail"`
	Video     *falMedia  `json:"video"`
	Images    []falMedia `json:"images"`
}

func (p *falPayload) mediaURL() string {
	if p.Video != nil && p.Video.URL != "" {
		return p.Video.URL
	}
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		return p.Images[0].URL
	}
	return ""
}

// Submit enqueues a generation. The response is decoded explicitly into
// Direct (media already available) or Queued (request id to poll).
func (c *FalClient) Submit(ctx context.Context, prompt, aspectRatio string) (SubmitResult, error) {
	body := map[string]string{
		"prompt":       prompt,
		"aspect_ratio": aspectRatio,
	}

	payload, err := retry.DoValue(ctx, c.policy, c.logger, "fal.submit", func(ctx context.Context) (*falPayload, error) {
		var out falPayload
		resp, err := c.http.JSON(ctx, http.MethodPost, c.baseURL+"/"+c.model, body, &out)
		if err != nil {
			return nil, withDetail(resp, err)
		}
		return &out, nil
	})
	if err != nil {
		return nil, &ProviderError{Op: "submit", Message: "failed to start generation", Cause: err}
	}

	if url := payload.mediaURL(); url != "" {
		return Direct{MediaURL: url}, nil
	}
	if payload.RequestID != "" {
		c.logger.Debug().Str("request_id", payload.RequestID).Msg("visual generation queued")
		return Queued{RequestID: payload.RequestID}, nil
	}
	return nil, &ProviderError{Op: "submit", Message: "response carried neither media nor request id"}
}

// Status reports the queue state of a request.
func (c *FalClient) Status(ctx context.Context, requestID string) (*StatusReport, error) {
	url := c.baseURL + "/requests/" + requestID + "/status"
	payload, err := retry.DoValue(ctx, c.policy, c.logger, "fal.status", func(ctx context.Context) (*falPayload, error) {
		var out falPayload
		if _, err := c.http.JSON(ctx, http.MethodGet, url, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, &ProviderError{Op: "status", Message: "failed to read status", Cause: err}
	}
	return &StatusReport{Status: JobStatus(strings.ToUpper(payload.Status)), Error: payload.Error}, nil
}

// Result fetches the media URL of a completed request.
func (c *FalClient) Result(ctx context.Context, requestID string) (string, error) {
	url := c.baseURL + "/requests/" + requestID
	payload, err := retry.DoValue(ctx, c.policy, c.logger, "fal.result", func(ctx context.Context) (*falPayload, error) {
		var out falPayload
		if _, err := c.http.JSON(ctx, http.MethodGet, url, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return "", &ProviderError{Op: "result", Message: "failed to read result", Cause: err}
	}
	mediaURL := payload.mediaURL()
	if mediaURL == "" {
		return "", &ProviderError{Op: "result", Message: "completed request has no media URL"}
	}
	return mediaURL, nil
}

// Download fetches the generated media bytes.
func (c *FalClient) Download(ctx context.Context, mediaURL string) (*Media, error) {
	resp, err := retry.DoValue(ctx, c.policy, c.logger, "fal.download", func(ctx context.Context) (*fetch.Response, error) {
		return fetch.Download(ctx, mediaURL)
	})
	if err != nil {
		return nil, &ProviderError{Op: "download", Message: "failed to download media", Cause: err}
	}
	return &Media{Data: resp.Body, ContentType: resp.ContentType}, nil
}

// withDetail surfaces fal's "detail" message in the error chain.
func withDetail(resp *fetch.Response, err error) error {
	if resp == nil || len(resp.Body) == 0 {
		return err
	}
	var body falPayload
	if json.Unmarshal(resp.Body, &body) != nil || body.Detail == nil {
		return err
	}
	var detail string
	switch d := body.Detail.(type) {
	case string:
		detail = d
	default:
		raw, _ := json.Marshal(d)
		detail = string(raw)
	}
	return errors.Join(err, errors.New(detail))
}
