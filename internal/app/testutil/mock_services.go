package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"upload-ai/internal/api/v1/dto"
)

// MockRunService is a mock implementation of services.RunService
type MockRunService struct {
	mock.Mock
}

func NewMockRunService(t *testing.T) *MockRunService {
	m := &MockRunService{}
	m.Test(t)
	return m
}

func (m *MockRunService) CreateRun(ctx context.Context, req *dto.SubmitRun) (*dto.RunResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RunResponse), args.Error(1)
}

func (m *MockRunService) GetRun(ctx context.Context, id string) (*dto.RunResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RunResponse), args.Error(1)
}

func (m *MockRunService) ListRuns(ctx context.Context) (*dto.RunListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RunListResponse), args.Error(1)
}

func (m *MockRunService) CancelRun(ctx context.Context, id string) (*dto.RunResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RunResponse), args.Error(1)
}

func (m *MockRunService) StreamRun(ctx context.Context, id string) (<-chan dto.RunEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan dto.RunEvent), args.Error(1)
}

// EventStream returns a closed channel pre-filled with events, for StreamRun mocks.
func EventStream(events ...dto.RunEvent) <-chan dto.RunEvent {
	ch := make(chan dto.RunEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}
