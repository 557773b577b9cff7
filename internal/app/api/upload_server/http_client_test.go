package upload_server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/model"
)

func testArtifact() model.AudioArtifact {
	return model.AudioArtifact{Bytes: []byte("ID3-audio"), MimeType: "audio/mpeg", Filename: "audio.mp3"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:  server.URL + "/",
		Timeout:  timeout,
		APIToken: "secret",
		Headers:  map[string]string{"X-Client": "uploadai"},
	}, nil)
}

func requireServiceError(t *testing.T, err error) *api.ServiceError {
	t.Helper()
	var serviceErr *api.ServiceError
	require.True(t, errors.As(err, &serviceErr), "expected ServiceError, got %T: %v", err, err)
	return serviceErr
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
}

func TestUploadAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "uploadai", r.Header.Get("X-Client"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		assert.Equal(t, "ID3-audio", string(data))
		assert.Equal(t, "audio.mp3", header.Filename)
		assert.Equal(t, "audio/mpeg", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"video":{"id":"vid-123","name":"audio.mp3"}}`))
	}, time.Second)

	id, err := client.UploadAudio(context.Background(), testArtifact())
	require.NoError(t, err)
	assert.Equal(t, model.VideoID("vid-123"), id)
}

func TestSubmitYoutubeSource(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantID   model.VideoID
	}{
		{"nested video", `{"video":{"id":"a1"}}`, "a1"},
		{"flat id", `{"id":"b2"}`, "b2"},
		{"videoId field", `{"videoId":"c3"}`, "c3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/youtube", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]string{"url": "https://example.com/v", "prompt": ""}, body)

				_, _ = w.Write([]byte(tt.response))
			}, time.Second)

			id, err := client.SubmitYoutubeSource(context.Background(), "https://example.com/v", "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestRequestTranscription(t *testing.T) {
	prompt := "golang, ffmpeg, pipeline, café"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos/abc%2F1/transcription", r.URL.EscapedPath())

		raw, _ := io.ReadAll(r.Body)
		var body map[string]string
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, prompt, body["prompt"])

		w.WriteHeader(http.StatusAccepted)
	}, time.Second)

	ack, err := client.RequestTranscription(context.Background(), "abc/1", prompt)
	require.NoError(t, err)
	assert.Equal(t, model.VideoID("abc/1"), ack.VideoID)
	assert.Equal(t, http.StatusAccepted, ack.StatusCode)
}

func TestRequestTranscriptionForwardsEmptyPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"prompt":""}`, string(raw))
		_, _ = w.Write([]byte(`{"transcription":"ignored"}`))
	}, time.Second)

	_, err := client.RequestTranscription(context.Background(), "v1", "")
	require.NoError(t, err)
}

func TestRequestTranscriptionRequiresID(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := client.RequestTranscription(context.Background(), "", "p")

	serviceErr := requireServiceError(t, err)
	assert.ErrorIs(t, err, api.ErrTranscription)
	assert.Equal(t, api.CodeRequestFailed, serviceErr.Code)
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      string
		wantRetryable bool
		wantSummary   string
	}{
		{"server error", http.StatusServiceUnavailable, "down", api.CodeAPIError, true, "service returned status 503"},
		{"rate limited", http.StatusTooManyRequests, "slow down", api.CodeAPIError, true, "service returned status 429"},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, api.CodeAPIError, false, "service returned status 400"},
		{"malformed json", http.StatusOK, "<html>", api.CodeResponseInvalid, false, "invalid response"},
		{"missing id", http.StatusOK, `{"video":{}}`, api.CodeResponseInvalid, false, "invalid response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := client.UploadAudio(context.Background(), testArtifact())
			serviceErr := requireServiceError(t, err)

			assert.ErrorIs(t, err, api.ErrUpload)
			assert.NotErrorIs(t, err, api.ErrTranscription)
			assert.Equal(t, api.KindUpload, serviceErr.Kind)
			assert.Equal(t, tt.wantCode, serviceErr.Code)
			assert.Equal(t, tt.wantRetryable, serviceErr.Retryable)
			assert.Equal(t, tt.wantSummary, serviceErr.Summary())
			if tt.wantCode == api.CodeAPIError {
				assert.Equal(t, tt.status, serviceErr.StatusCode)
			}
		})
	}
}

func TestTranscriptionAPIErrorKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, time.Second)

	_, err := client.RequestTranscription(context.Background(), "missing", "p")
	assert.ErrorIs(t, err, api.ErrTranscription)
	assert.Equal(t, http.StatusNotFound, requireServiceError(t, err).StatusCode)
}

func TestUploadTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := client.UploadAudio(context.Background(), testArtifact())
	serviceErr := requireServiceError(t, err)

	assert.ErrorIs(t, err, api.ErrUpload)
	assert.Equal(t, api.CodeTimeout, serviceErr.Code)
	assert.True(t, serviceErr.Retryable)
	assert.Equal(t, "timed out", serviceErr.Summary())
}

func TestCancelledByCaller(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.SubmitYoutubeSource(ctx, "https://example.com/v", "p")
	serviceErr := requireServiceError(t, err)
	assert.Equal(t, api.CodeCancelled, serviceErr.Code)
	assert.False(t, serviceErr.Retryable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: baseURL, Timeout: time.Second}, nil)
	_, err := client.UploadAudio(context.Background(), testArtifact())

	serviceErr := requireServiceError(t, err)
	assert.Equal(t, api.CodeRequestFailed, serviceErr.Code)
	assert.True(t, serviceErr.Retryable)
}
