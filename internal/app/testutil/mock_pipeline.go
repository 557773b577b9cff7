package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/model"
)

// MockTranscoder is a mock implementation of pipeline.Transcoder
type MockTranscoder struct {
	mock.Mock
}

func NewMockTranscoder(t *testing.T) *MockTranscoder {
	m := &MockTranscoder{}
	m.Test(t)
	return m
}

func (m *MockTranscoder) Transcode(ctx context.Context, req model.TranscodeRequest, feed *audio.Feed) (model.AudioArtifact, error) {
	args := m.Called(ctx, req, feed)
	return args.Get(0).(model.AudioArtifact), args.Error(1)
}

// MockCoordinator is a mock implementation of api.Coordinator
type MockCoordinator struct {
	mock.Mock
}

func NewMockCoordinator(t *testing.T) *MockCoordinator {
	m := &MockCoordinator{}
	m.Test(t)
	return m
}

func (m *MockCoordinator) UploadAudio(ctx context.Context, artifact model.AudioArtifact) (model.VideoID, error) {
	args := m.Called(ctx, artifact)
	return args.Get(0).(model.VideoID), args.Error(1)
}

func (m *MockCoordinator) SubmitYoutubeSource(ctx context.Context, url, prompt string) (model.VideoID, error) {
	args := m.Called(ctx, url, prompt)
	return args.Get(0).(model.VideoID), args.Error(1)
}

func (m *MockCoordinator) RequestTranscription(ctx context.Context, videoID model.VideoID, prompt string) (api.Ack, error) {
	args := m.Called(ctx, videoID, prompt)
	return args.Get(0).(api.Ack), args.Error(1)
}

// BlockUntilCancelled is a mock Run function that waits for the call's context, which must be
// the first argument, to be done.
func BlockUntilCancelled(args mock.Arguments) {
	<-args.Get(0).(context.Context).Done()
}

var (
	_ api.Coordinator = (*MockCoordinator)(nil)
)
