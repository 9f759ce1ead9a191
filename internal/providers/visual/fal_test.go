package visual

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
}

func newTestClient(url string) *FalClient {
	return NewFalClient("fal-key", WithBaseURL(url), WithRetry(fastRetry()))
}

func TestAspectFor(t *testing.T) {
	tests := map[string]string{
		"9:16":      Aspect9x16,
		"portrait":  Aspect9x16,
		"1:1":       Aspect1x1,
		"Square":    Aspect1x1,
		"16:9":      Aspect16x9,
		"landscape": Aspect16x9,
		"":          Aspect16x9,
		"4:3":       Aspect16x9,
	}
	for input, want := range tests {
		assert.Equal(t, want, AspectFor(input), input)
	}
}

func TestSubmit_Queued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fal-ai/minimax-video", r.URL.Path)
		assert.Equal(t, "Key fal-key", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "A wide shot of a city.", body["prompt"])
		assert.Equal(t, "9:16", body["aspect_ratio"])
		_, _ = w.Write([]byte(`{"request_id":"req-1","status":"IN_QUEUE"}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Submit(t.Context(), "A wide shot of a city.", Aspect9x16)
	require.NoError(t, err)
	assert.Equal(t, Queued{RequestID: "req-1"}, result)
}

func TestSubmit_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"video":{"url":"https://cdn.fal/v.mp4"}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Submit(t.Context(), "p", Aspect16x9)
	require.NoError(t, err)
	assert.Equal(t, Direct{MediaURL: "https://cdn.fal/v.mp4"}, result)
}

func TestSubmit_ProviderRejects(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"prompt violates policy"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(t.Context(), "p", Aspect16x9)
	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "submit", provErr.Op)
	assert.Contains(t, err.Error(), "prompt violates policy")
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestSubmit_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"request_id":"req-9"}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Submit(t.Context(), "p", Aspect16x9)
	require.NoError(t, err)
	assert.Equal(t, Queued{RequestID: "req-9"}, result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(t.Context(), "p", Aspect16x9)
	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Message, "neither media nor request id")
}

func TestStatusAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/requests/req-1/status":
			_, _ = w.Write([]byte(`{"status":"COMPLETED"}`))
		case "/requests/req-1":
			_, _ = w.Write([]byte(`{"video":{"url":"https://cdn.fal/out.mp4"}}`))
		case "/requests/req-2":
			_, _ = w.Write([]byte(`{"images":[{"url":"https://cdn.fal/out.png"}]}`))
		case "/requests/req-3":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	status, err := client.Status(t.Context(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.True(t, status.Status.Terminal())

	url, err := client.Result(t.Context(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.fal/out.mp4", url)

	url, err = client.Result(t.Context(), "req-2")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.fal/out.png", url, "images fallback")

	url, err = client.Result(t.Context(), "req-3")
	assert.Error(t, err)
	assert.Empty(t, url)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "media CDN gets no API key")
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("mp4"))
	}))
	defer srv.Close()

	media, err := newTestClient("http://unused").Download(t.Context(), srv.URL+"/v.mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", media.ContentType)
	assert.Equal(t, []byte("mp4"), media.Data)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, StatusInQueue.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
