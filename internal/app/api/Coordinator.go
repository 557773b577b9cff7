package api

import (
	"context"
	"errors"
	"fmt"

	"upload-ai/internal/app/model"
)

// Coordinator performs the network calls against the remote transcription service.
// Each method is a single round trip; callers decide ordering and retries.
type Coordinator interface {
	UploadAudio(ctx context.Context, artifact model.AudioArtifact) (model.VideoID, error)
	SubmitYoutubeSource(ctx context.Context, url, prompt string) (model.VideoID, error)
	RequestTranscription(ctx context.Context, videoID model.VideoID, prompt string) (Ack, error)
}

// Ack is the service's acceptance of a transcription job.
type Ack struct {
	VideoID    model.VideoID
	StatusCode int
}

// Kind tells which family of call failed.
type Kind string

const (
	KindUpload        Kind = "upload"
	KindTranscription Kind = "transcription"
)

// Error codes carried by ServiceError.
const (
	CodeTimeout         = "timeout"
	CodeRequestFailed   = "request_failed"
	CodeAPIError        = "api_error"
	CodeResponseInvalid = "response_invalid"
	CodeCancelled       = "cancelled"
)

var (
	ErrUpload        = errors.New("upload failed")
	ErrTranscription = errors.New("transcription request failed")
)

// ServiceError describes a failed call to the remote service.
type ServiceError struct {
	Op         string `json:"op"`
	Kind       Kind   `json:"kind"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Retryable  bool   `json:"retryable"`
	Err        error  `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpload or ErrTranscription according to Kind.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrUpload:
		return e.Kind == KindUpload
	case ErrTranscription:
		return e.Kind == KindTranscription
	}
	return false
}

// Summary is the short, user-facing description of the failure.
func (e *ServiceError) Summary() string {
	switch e.Code {
	case CodeTimeout:
		return "timed out"
	case CodeCancelled:
		return "cancelled"
	case CodeAPIError:
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	case CodeResponseInvalid:
		return "invalid response"
	default:
		return "request failed"
	}
}
