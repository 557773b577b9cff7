package services

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	apierrors "upload-ai/internal/api/errors"
	"upload-ai/internal/api/v1/dto"
	"upload-ai/internal/app/common"
	apperrors "upload-ai/internal/app/errors"
	"upload-ai/internal/app/pipeline"
	"upload-ai/internal/app/source"
)

type runService struct {
	machine  Submitter
	registry *pipeline.Registry
	logger   *zap.Logger
}

// NewRunService creates a RunService that starts runs on machine and keeps them in registry.
func NewRunService(machine Submitter, registry *pipeline.Registry, logger *zap.Logger) RunService {
	return &runService{
		machine:  machine,
		registry: registry,
		logger:   common.OrNop(logger),
	}
}

// CreateRun resolves the source and starts a run. The run outlives the request, so ctx is
// not attached to it.
func (s *runService) CreateRun(_ context.Context, req *dto.SubmitRun) (*dto.RunResponse, error) {
	src, err := source.Resolve(source.Input{
		Data:     req.Data,
		MimeType: req.MimeType,
		Filename: req.Filename,
		URL:      req.URL,
	})
	if err != nil {
		return nil, sourceError(err)
	}

	run := s.machine.Submit(src, req.Prompt)
	s.registry.Add(run)
	s.logger.Debug("run accepted", zap.String("run_id", run.ID()), zap.String("source", src.Describe()))

	return ToRunResponse(run.Snapshot()), nil
}

func (s *runService) GetRun(_ context.Context, id string) (*dto.RunResponse, error) {
	run, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return ToRunResponse(run.Snapshot()), nil
}

func (s *runService) ListRuns(_ context.Context) (*dto.RunListResponse, error) {
	runs := lo.Map(s.registry.List(), func(run *pipeline.Run, _ int) dto.RunResponse {
		return *ToRunResponse(run.Snapshot())
	})
	return &dto.RunListResponse{Runs: runs, Total: len(runs)}, nil
}

func (s *runService) CancelRun(_ context.Context, id string) (*dto.RunResponse, error) {
	run, err := s.registry.Cancel(id)
	if err != nil {
		return nil, runError(id, err)
	}
	return ToRunResponse(run.Snapshot()), nil
}

// StreamRun emits every stage of the run in order, with progress events in between, and
// closes the channel after the terminal stage or when ctx is done.
func (s *runService) StreamRun(ctx context.Context, id string) (<-chan dto.RunEvent, error) {
	run, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	out := make(chan dto.RunEvent)
	go func() {
		defer close(out)

		stages := run.Observe(ctx)
		feed := run.Feed()
		current := pipeline.Waiting

		send := func(ev dto.RunEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case stage, ok := <-stages:
				if !ok {
					return
				}
				current = stage
				if !send(stageEvent(run, stage)) {
					return
				}
			case <-feed.Changed():
				ev := progressEvent(current, feed.Latest().FractionComplete)
				if !send(ev) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *runService) lookup(id string) (*pipeline.Run, error) {
	run, err := s.registry.Get(id)
	if err != nil {
		return nil, runError(id, err)
	}
	return run, nil
}

func stageEvent(run *pipeline.Run, stage pipeline.Stage) dto.RunEvent {
	ev := progressEvent(stage, run.Progress().FractionComplete)
	ev.Type = dto.EventStage
	if stage.IsTerminal() {
		snap := run.Snapshot()
		ev.VideoID = string(snap.VideoID)
		ev.Error = runErrorFrom(snap.Error)
	}
	return ev
}

func progressEvent(stage pipeline.Stage, fraction float64) dto.RunEvent {
	return dto.RunEvent{
		Type:        dto.EventProgress,
		Stage:       string(stage.Phase),
		FailedStage: string(stage.FailedAt),
		Progress:    fraction,
	}
}

// ToRunResponse converts a snapshot to its API representation.
func ToRunResponse(snap pipeline.Snapshot) *dto.RunResponse {
	resp := &dto.RunResponse{
		ID:          snap.ID,
		Stage:       string(snap.Stage.Phase),
		FailedStage: string(snap.Stage.FailedAt),
		VideoID:     string(snap.VideoID),
		Error:       runErrorFrom(snap.Error),
		Progress:    snap.Progress.FractionComplete,
		Source: dto.SourceResponse{
			Kind: string(snap.SourceKind),
			Name: snap.Source,
		},
		Prompt:    snap.Prompt,
		CreatedAt: snap.CreatedAt,
	}
	if !snap.FinishedAt.IsZero() {
		finished := snap.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}

func runErrorFrom(info *pipeline.ErrorInfo) *dto.RunError {
	if info == nil {
		return nil
	}
	return &dto.RunError{Reason: info.Reason, StatusCode: info.StatusCode}
}

func sourceError(err error) error {
	var invalid *source.InvalidSourceError
	if errors.As(err, &invalid) {
		field := strings.ReplaceAll(invalid.Field, " ", "_")
		if field == "" {
			field = "source"
		}
		return apierrors.InvalidSource(field, invalid.Reason)
	}
	return apierrors.InvalidRequest(err.Error(), nil)
}

func runError(id string, err error) error {
	if errors.Is(err, apperrors.ErrRunNotFound) {
		return apierrors.RunNotFound(id)
	}
	return apierrors.Internal(err.Error())
}
