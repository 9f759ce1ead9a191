package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/reel-studio/internal/pipeline"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress sends a stage progress event
func (s *SSEWriter) WriteProgress(event pipeline.ProgressEvent) error {
	return s.WriteEvent("progress", event)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(err error) {
	body := newErrorBody(err)
	s.WriteEvent("error", struct { //nolint:errcheck
		errorBody
		Status int `json:"status"`
	}{body, HTTPStatus(err)})
}

// WriteComplete sends the final pipeline result
func (s *SSEWriter) WriteComplete(result *pipeline.Result) {
	s.WriteEvent("complete", result) //nolint:errcheck
}
