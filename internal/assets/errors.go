package assets

import "fmt"

// GenerationFailedError means the visual provider rejected or failed a job.
type GenerationFailedError struct {
	Scene     int
	RequestID string
	Message   string
	Cause     error
}

func (e *GenerationFailedError) Error() string {
	msg := fmt.Sprintf("visual generation failed for scene %d", e.Scene)
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Cause
}

// GenerationTimeoutError means a queued job did not finish within the poll budget.
type GenerationTimeoutError struct {
	Scene     int
	RequestID string
	Attempts  int
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("visual generation for scene %d timed out after %d status checks (request %s)",
		e.Scene, e.Attempts, e.RequestID)
}

// VoiceGenerationFailedError means narration synthesis did not succeed.
type VoiceGenerationFailedError struct {
	Scene int
	Cause error
}

func (e *VoiceGenerationFailedError) Error() string {
	return fmt.Sprintf("voice generation failed for scene %d: %v", e.Scene, e.Cause)
}

func (e *VoiceGenerationFailedError) Unwrap() error {
	return e.Cause
}
