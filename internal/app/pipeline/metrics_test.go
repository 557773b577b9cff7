package pipeline

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/model"
	"upload-ai/internal/app/testutil"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	transcoder := testutil.NewMockTranscoder(t)
	coordinator := testutil.NewMockCoordinator(t)
	transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything).
		Return(model.AudioArtifact{}, &audio.TranscodeError{Reason: audio.ReasonNoAudioStream})
	coordinator.On("SubmitYoutubeSource", mock.Anything, mock.Anything, mock.Anything).Return(model.VideoID("yt"), nil)
	coordinator.On("RequestTranscription", mock.Anything, mock.Anything, mock.Anything).Return(api.Ack{}, nil)

	machine := NewMachine(transcoder, coordinator, nil, metrics)
	collect(t, machine.Submit(testutil.LocalSource(), ""))
	collect(t, machine.Submit(testutil.RemoteSource(), ""))

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.runs.WithLabelValues("local_file", "failed_converting")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.runs.WithLabelValues("remote_reference", "success")))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.inFlight))
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "success", outcomeLabel(transition{To: Success}))
	assert.Equal(t, "cancelled", outcomeLabel(transition{
		To:    Failed(PhaseUploading),
		Error: &ErrorInfo{Err: ErrCancelled},
	}))
	assert.Equal(t, "failed_generating", outcomeLabel(transition{
		To:    Failed(PhaseGenerating),
		Error: &ErrorInfo{Reason: "timed out"},
	}))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.runStarted()
	metrics.observe(transition{From: Waiting, To: Success, Elapsed: time.Second})
}
