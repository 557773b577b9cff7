package dto

import (
	"mime/multipart"
	"time"

	"upload-ai/internal/api/errors"
)

// CreateRunRequest is the body of POST /api/v1/runs. A JSON body carries a URL; a multipart
// form carries either a file or a url field.
type CreateRunRequest struct {
	URL    string                `json:"url" form:"url" binding:"omitempty,url"`
	Prompt string                `json:"prompt" form:"prompt" binding:"max=4000"`
	File   *multipart.FileHeader `json:"-" form:"file"`
}

// Validate performs domain-specific validation
func (r *CreateRunRequest) Validate() error {
	switch {
	case r.File != nil && r.URL != "":
		return errors.InvalidRequest("Invalid run request", map[string]string{
			"source": "provide either a file or a url, not both",
		})
	case r.File == nil && r.URL == "":
		return errors.InvalidRequest("Invalid run request", map[string]string{
			"source": "a file or a url is required",
		})
	}
	return nil
}

// SubmitRun is what the handler hands to the run service once the upload has been read.
type SubmitRun struct {
	URL      string
	Prompt   string
	Data     []byte
	MimeType string
	Filename string
}

// RunResponse represents a run in API responses
type RunResponse struct {
	ID          string         `json:"id"`
	Stage       string         `json:"stage"`
	FailedStage string         `json:"failedStage,omitempty"`
	VideoID     string         `json:"videoId,omitempty"`
	Error       *RunError      `json:"error,omitempty"`
	Progress    float64        `json:"progress"`
	Source      SourceResponse `json:"source"`
	Prompt      string         `json:"prompt"`
	CreatedAt   time.Time      `json:"createdAt"`
	FinishedAt  *time.Time     `json:"finishedAt,omitempty"`
}

// RunListResponse lists the runs the server still remembers, newest first.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int           `json:"total"`
}

type SourceResponse struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// RunError explains why a run failed
type RunError struct {
	Reason     string `json:"reason"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Event types sent on the run event stream.
const (
	EventStage    = "stage"
	EventProgress = "progress"
)

// RunEvent is one Server-Sent Event on GET /api/v1/runs/:id/events
type RunEvent struct {
	Type        string    `json:"type"`
	Stage       string    `json:"stage"`
	FailedStage string    `json:"failedStage,omitempty"`
	Progress    float64   `json:"progress"`
	VideoID     string    `json:"videoId,omitempty"`
	Error       *RunError `json:"error,omitempty"`
}

// DependencyStatus reports one external binary on GET /health
type DependencyStatus struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string             `json:"status"`
	Timestamp    int64              `json:"timestamp"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
