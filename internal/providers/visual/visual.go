// Package visual talks to the image/video generation provider (fal.ai queue API).
package visual

import (
	"context"
	"fmt"
	"strings"
)

// Aspect ratios accepted by the provider.
const (
	Aspect16x9 = "16:9"
	Aspect9x16 = "9:16"
	Aspect1x1  = "1:1"
)

// AspectFor maps a requested frame size to the provider's aspect ratio.
func AspectFor(frameSize string) string {
	switch strings.ToLower(strings.TrimSpace(frameSize)) {
	case "9:16", "portrait":
		return Aspect9x16
	case "1:1", "square":
		return Aspect1x1
	default:
		return Aspect16x9
	}
}

// SubmitResult is the outcome of a submission: either Direct or Queued.
type SubmitResult interface {
	isSubmitResult()
}

// Direct carries a media URL returned synchronously.
type Direct struct {
	MediaURL string
}

// Queued carries the handle of an asynchronous job.
type Queued struct {
	RequestID string
}

func (Direct) isSubmitResult() {}
func (Queued) isSubmitResult() {}

// JobStatus is the provider's queue state for a job.
type JobStatus string

// Queue states.
const (
	StatusInQueue    JobStatus = "IN_QUEUE"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further polling is needed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusReport is one poll response.
type StatusReport struct {
	Status JobStatus
	Error  string
}

// Media is a downloaded asset.
type Media struct {
	Data        []byte
	ContentType string
}

// Provider is the visual generation contract used by the asset generator.
type Provider interface {
	Submit(ctx context.Context, prompt, aspectRatio string) (SubmitResult, error)
	Status(ctx context.Context, requestID string) (*StatusReport, error)
	Result(ctx context.Context, requestID string) (string, error)
	Download(ctx context.Context, mediaURL string) (*Media, error)
}

// ProviderError is a failure reported by, or talking to, the provider.
type ProviderError struct {
	Op      string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("visual provider %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("visual provider %s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
