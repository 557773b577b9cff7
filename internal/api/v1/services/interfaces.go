package services

import (
	"context"

	"upload-ai/internal/api/v1/dto"
	"upload-ai/internal/app/model"
	"upload-ai/internal/app/pipeline"
)

// RunService defines the interface for run operations
type RunService interface {
	CreateRun(ctx context.Context, req *dto.SubmitRun) (*dto.RunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.RunResponse, error)
	ListRuns(ctx context.Context) (*dto.RunListResponse, error)
	CancelRun(ctx context.Context, id string) (*dto.RunResponse, error)
	StreamRun(ctx context.Context, id string) (<-chan dto.RunEvent, error)
}

// Submitter starts runs. *pipeline.Machine implements it.
type Submitter interface {
	Submit(source model.VideoSource, prompt string) *pipeline.Run
}
