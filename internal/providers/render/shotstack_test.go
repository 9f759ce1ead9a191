package render

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/reel-studio/internal/composition"
	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient("ss-key", Options{
		BaseURL: url,
		Retry:   retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1},
	})
}

func sampleEdit() *composition.Edit {
	return &composition.Edit{
		Timeline: composition.Timeline{Background: "#000000", Tracks: []composition.Track{{}, {}}},
		Output:   composition.Output{Format: "mp4", Resolution: "sd", Size: composition.Size{Width: 1024, Height: 576}},
	}
}

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stage/render", r.URL.Path)
		assert.Equal(t, "ss-key", r.Header.Get("x-api-key"))

		var edit composition.Edit
		require.NoError(t, json.NewDecoder(r.Body).Decode(&edit))
		assert.Equal(t, "mp4", edit.Output.Format)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Created","response":{"message":"Render Successfully Queued","id":"rnd-1"}}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	id, err := client.Submit(t.Context(), sampleEdit())
	require.NoError(t, err)
	assert.Equal(t, "rnd-1", id)
	assert.Equal(t, srv.URL+"/stage/render/rnd-1", client.StatusURL(id))
}

func TestSubmit_Rejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Bad Request","response":{"error":"tracks required"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Submit(t.Context(), sampleEdit())
	var failure *SubmissionFailedError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Bad Request", failure.Message)
	assert.Equal(t, http.StatusBadRequest, failure.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_ServerErrorNotRepeated(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Submit(t.Context(), sampleEdit())
	var failure *SubmissionFailedError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"response":{"id":"rnd-3"}}`))
	}))
	defer srv.Close()

	id, err := testClient(srv.URL).Submit(t.Context(), sampleEdit())
	require.NoError(t, err)
	assert.Equal(t, "rnd-3", id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"response":{}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Submit(t.Context(), sampleEdit())
	var failure *SubmissionFailedError
	assert.True(t, errors.As(err, &failure))
}

func TestSubmit_NilEdit(t *testing.T) {
	_, err := testClient("http://unused").Submit(t.Context(), nil)
	var failure *SubmissionFailedError
	assert.True(t, errors.As(err, &failure))
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v1/render/done-1":
			_, _ = w.Write([]byte(`{"success":true,"response":{"id":"done-1","status":"done","url":"https://cdn.shotstack.io/done-1.mp4"}}`))
		case "/v1/render/fail-1":
			_, _ = w.Write([]byte(`{"success":true,"response":{"id":"fail-1","status":"failed","error":"asset 404"}}`))
		case "/v1/render/busy-1":
			_, _ = w.Write([]byte(`{"success":true,"response":{"id":"busy-1","status":"Rendering"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("ss-key", Options{BaseURL: srv.URL, Stage: "v1", Retry: retry.Policy{MaxAttempts: 1}})

	report, err := client.Status(t.Context(), "done-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, report.Status)
	assert.Equal(t, "https://cdn.shotstack.io/done-1.mp4", report.URL)

	report, err = client.Status(t.Context(), "fail-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, "asset 404", report.Error)

	report, err = client.Status(t.Context(), "busy-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRendering, report.Status)

	_, err = client.Status(t.Context(), "missing")
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))

	_, err = client.Status(t.Context(), "")
	assert.Error(t, err)
}
