package upload_server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/common"
	"upload-ai/internal/app/model"
)

const (
	DefaultBaseURL = "http://localhost:3333"
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

// Config represents configuration for the upload-ai service HTTP API
type Config struct {
	BaseURL  string            `yaml:"base_url"`  // e.g. "http://localhost:3333"
	Timeout  time.Duration     `yaml:"timeout"`   // Per-call timeout
	APIToken string            `yaml:"api_token"` // Sent as a bearer token when set
	Headers  map[string]string `yaml:"headers"`   // Extra headers on every request
}

// Client implements api.Coordinator over HTTP.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

var _ api.Coordinator = (*Client)(nil)

type videoResponse struct {
	Video *struct {
		ID string `json:"id"`
	} `json:"video"`
	ID      string `json:"id"`
	VideoID string `json:"videoId"`
}

func (r videoResponse) identifier() string {
	if r.Video != nil && r.Video.ID != "" {
		return r.Video.ID
	}
	if r.ID != "" {
		return r.ID
	}
	return r.VideoID
}

// NewClient creates a client, filling in defaults for unset fields.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	logger = common.OrNop(logger)

	return &Client{
		config: config,
		// Deadlines come from the per-call context.
		http:   &http.Client{},
		logger: logger,
	}
}

// UploadAudio sends the artifact as multipart form data to POST /videos.
func (c *Client) UploadAudio(ctx context.Context, artifact model.AudioArtifact) (model.VideoID, error) {
	const op = "upload audio"

	body, contentType, err := audioForm(artifact)
	if err != nil {
		return "", &api.ServiceError{
			Op:      op,
			Kind:    api.KindUpload,
			Code:    api.CodeRequestFailed,
			Message: fmt.Sprintf("failed to create multipart form: %v", err),
			Err:     err,
		}
	}

	data, _, err := c.do(ctx, op, api.KindUpload, "/videos", contentType, body)
	if err != nil {
		return "", err
	}
	return parseVideoID(op, api.KindUpload, data)
}

// SubmitYoutubeSource registers a remote video with POST /youtube. The service extracts
// the audio itself.
func (c *Client) SubmitYoutubeSource(ctx context.Context, videoURL, prompt string) (model.VideoID, error) {
	const op = "submit youtube source"

	payload, err := json.Marshal(map[string]string{"url": videoURL, "prompt": prompt})
	if err != nil {
		return "", &api.ServiceError{Op: op, Kind: api.KindUpload, Code: api.CodeRequestFailed, Message: err.Error(), Err: err}
	}

	data, _, err := c.do(ctx, op, api.KindUpload, "/youtube", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	return parseVideoID(op, api.KindUpload, data)
}

// RequestTranscription attaches prompt to the video and starts transcription with
// POST /videos/{id}/transcription. Any 2xx response is an acknowledgement.
func (c *Client) RequestTranscription(ctx context.Context, videoID model.VideoID, prompt string) (api.Ack, error) {
	const op = "request transcription"

	if videoID == "" {
		return api.Ack{}, &api.ServiceError{
			Op:      op,
			Kind:    api.KindTranscription,
			Code:    api.CodeRequestFailed,
			Message: "video id is required",
		}
	}

	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return api.Ack{}, &api.ServiceError{Op: op, Kind: api.KindTranscription, Code: api.CodeRequestFailed, Message: err.Error(), Err: err}
	}

	path := "/videos/" + url.PathEscape(videoID.String()) + "/transcription"
	_, status, err := c.do(ctx, op, api.KindTranscription, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return api.Ack{}, err
	}
	return api.Ack{VideoID: videoID, StatusCode: status}, nil
}

func (c *Client) do(ctx context.Context, op string, kind api.Kind, path, contentType string, body io.Reader) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	started := time.Now()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.config.BaseURL+path, body)
	if err != nil {
		return nil, 0, &api.ServiceError{
			Op:      op,
			Kind:    kind,
			Code:    api.CodeRequestFailed,
			Message: fmt.Sprintf("failed to create HTTP request: %v", err),
			Err:     err,
		}
	}

	for key, value := range c.headers() {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, c.transportError(ctx, callCtx, op, kind, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, c.transportError(ctx, callCtx, op, kind, err)
	}

	c.logger.Debug("service call finished",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &api.ServiceError{
			Op:         op,
			Kind:       kind,
			Code:       api.CodeAPIError,
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, truncate(data)),
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}
	return data, resp.StatusCode, nil
}

func (c *Client) headers() map[string]string {
	base := map[string]string{}
	if c.config.APIToken != "" {
		base["Authorization"] = "Bearer " + c.config.APIToken
	}
	return lo.Assign(base, c.config.Headers)
}

func (c *Client) transportError(parent, callCtx context.Context, op string, kind api.Kind, err error) error {
	serviceErr := &api.ServiceError{Op: op, Kind: kind, Err: err}

	var netErr net.Error
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		serviceErr.Code = api.CodeCancelled
		serviceErr.Message = "request cancelled"
	case errors.Is(callCtx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		serviceErr.Code = api.CodeTimeout
		serviceErr.Message = fmt.Sprintf("request timed out after %s", c.config.Timeout)
		serviceErr.Retryable = true
	default:
		serviceErr.Code = api.CodeRequestFailed
		serviceErr.Message = fmt.Sprintf("HTTP request failed: %v", err)
		serviceErr.Retryable = true
	}

	c.logger.Warn("service call failed", zap.String("op", op), zap.String("code", serviceErr.Code), zap.Error(err))
	return serviceErr
}

func audioForm(artifact model.AudioArtifact) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := artifact.Filename
	if filename == "" {
		filename = model.AudioFilename
	}
	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = model.AudioMimeType
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(artifact.Bytes); err != nil {
		return nil, "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func parseVideoID(op string, kind api.Kind, data []byte) (model.VideoID, error) {
	var resp videoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &api.ServiceError{
			Op:      op,
			Kind:    kind,
			Code:    api.CodeResponseInvalid,
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Err:     err,
		}
	}
	id := strings.TrimSpace(resp.identifier())
	if id == "" {
		return "", &api.ServiceError{
			Op:      op,
			Kind:    kind,
			Code:    api.CodeResponseInvalid,
			Message: "no video id found in response",
		}
	}
	return model.VideoID(id), nil
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return strings.TrimSpace(string(data))
}
