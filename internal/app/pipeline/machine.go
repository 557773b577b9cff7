package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/common"
	"upload-ai/internal/app/model"
)

// Transcoder converts video bytes to an audio artifact, publishing progress to feed.
type Transcoder interface {
	Transcode(ctx context.Context, req model.TranscodeRequest, feed *audio.Feed) (model.AudioArtifact, error)
}

// Machine sequences the transcoder and the coordinator for each submitted run.
type Machine struct {
	transcoder  Transcoder
	coordinator api.Coordinator
	logger      *zap.Logger
	metrics     *Metrics
	now         func() time.Time
}

// NewMachine creates a machine. logger and metrics may be nil.
func NewMachine(transcoder Transcoder, coordinator api.Coordinator, logger *zap.Logger, metrics *Metrics) *Machine {
	logger = common.OrNop(logger)
	return &Machine{
		transcoder:  transcoder,
		coordinator: coordinator,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Submit starts a new run in the background and returns its handle. The prompt is
// forwarded unmodified; an empty prompt is sent as "".
func (m *Machine) Submit(source model.VideoSource, prompt string) *Run {
	ctx, cancel := context.WithCancel(context.Background())
	run := newRun(uuid.NewString(), source, prompt, cancel, m.now, m.onTransition)

	m.metrics.runStarted()
	m.logger.Info("run submitted",
		zap.String("run_id", run.id),
		zap.String("source", sourceLabel(source.Kind())),
		zap.Int("prompt_length", len(prompt)))

	go m.execute(ctx, run)
	return run
}

func (m *Machine) execute(ctx context.Context, run *Run) {
	defer run.cancelCtx()
	defer run.feed.Close()

	var (
		videoID model.VideoID
		err     error
	)

	switch run.source.Kind() {
	case model.SourceLocalFile:
		file, _ := run.source.LocalFile()
		if run.advance(Converting) != nil {
			return
		}
		artifact, terr := m.transcoder.Transcode(ctx, model.NewTranscodeRequest(file.Bytes), run.feed)
		if terr != nil {
			m.fail(run, terr)
			return
		}
		if run.advance(Uploading) != nil {
			return
		}
		// The artifact is not referenced past this call.
		videoID, err = m.coordinator.UploadAudio(ctx, artifact)

	case model.SourceRemoteReference:
		ref, _ := run.source.RemoteReference()
		run.feed.Close()
		if run.advance(Uploading) != nil {
			return
		}
		videoID, err = m.coordinator.SubmitYoutubeSource(ctx, ref.URL, run.prompt)

	default:
		m.fail(run, ErrEmptySource)
		return
	}

	if err != nil {
		m.fail(run, err)
		return
	}
	if run.advanceWithVideo(videoID) != nil {
		return
	}
	if _, err := m.coordinator.RequestTranscription(ctx, videoID, run.prompt); err != nil {
		m.fail(run, err)
		return
	}
	_ = run.advance(Success)
}

func (m *Machine) fail(run *Run, err error) {
	// A cancelled run is already terminal; the aborted operation's error is dropped.
	_ = run.fail(failureFrom(err))
}

func (m *Machine) onTransition(t transition) {
	m.metrics.observe(t)

	fields := []zap.Field{
		zap.String("run_id", t.RunID),
		zap.String("from", t.From.String()),
		zap.String("stage", t.To.String()),
		zap.Duration("elapsed", t.Elapsed),
	}
	switch {
	case t.To.Phase == PhaseFailed && t.Error != nil:
		fields = append(fields, zap.String("reason", t.Error.Reason))
		if t.Error.Err != nil {
			fields = append(fields, zap.Error(t.Error.Err))
		}
		m.logger.Warn("run failed", fields...)
	case t.To.Phase == PhaseSuccess:
		m.logger.Info("run succeeded", append(fields, zap.String("video_id", t.VideoID.String()))...)
	default:
		if t.VideoID != "" {
			fields = append(fields, zap.String("video_id", t.VideoID.String()))
		}
		m.logger.Debug("run advanced", fields...)
	}
}

func failureFrom(err error) *ErrorInfo {
	info := &ErrorInfo{Reason: err.Error(), Err: err}

	var transcodeErr *audio.TranscodeError
	var serviceErr *api.ServiceError
	switch {
	case errors.As(err, &transcodeErr):
		info.Reason = transcodeErr.Summary()
	case errors.As(err, &serviceErr):
		info.Reason = serviceErr.Summary()
		info.StatusCode = serviceErr.StatusCode
	}
	return info
}

func sourceLabel(kind model.SourceKind) string {
	if kind == model.SourceUnknown {
		return "unknown"
	}
	return string(kind)
}
