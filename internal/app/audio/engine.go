package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"upload-ai/internal/app/common"
	apperrors "upload-ai/internal/app/errors"
	"upload-ai/internal/app/model"
)

// EngineConfig configures the ffmpeg-backed transcoding engine.
type EngineConfig struct {
	FFmpegPath  string        `yaml:"ffmpeg_path"`
	FFprobePath string        `yaml:"ffprobe_path"`
	JobTimeout  time.Duration `yaml:"job_timeout"` // 0 disables the limit
	TempDir     string        `yaml:"temp_dir"`
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	return c
}

// Engine is the process-wide transcoding handle. Load runs once successfully and is
// reused afterwards; Transcode runs at most one job at a time and queues the rest.
type Engine struct {
	cfg      EngineConfig
	runner   commandRunner
	lookPath func(string) (string, error)
	logger   *zap.Logger

	loadMu  sync.Mutex
	loaded  bool
	ffmpeg  string
	ffprobe string

	slot chan struct{}
}

// NewEngine creates an engine. Nothing is resolved until the first Load or Transcode.
func NewEngine(cfg EngineConfig, logger *zap.Logger) *Engine {
	logger = common.OrNop(logger)
	return &Engine{
		cfg:      cfg.withDefaults(),
		runner:   execRunner{},
		lookPath: exec.LookPath,
		logger:   logger,
		slot:     make(chan struct{}, 1),
	}
}

// Load resolves the ffmpeg and ffprobe binaries. Failures are not memoized.
func (e *Engine) Load() error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if e.loaded {
		return nil
	}

	ffmpeg, err := e.lookPath(e.cfg.FFmpegPath)
	if err != nil {
		return fmt.Errorf("%w: ffmpeg %q: %v", apperrors.ErrEngineUnavailable, e.cfg.FFmpegPath, err)
	}
	ffprobe, err := e.lookPath(e.cfg.FFprobePath)
	if err != nil {
		return fmt.Errorf("%w: ffprobe %q: %v", apperrors.ErrEngineUnavailable, e.cfg.FFprobePath, err)
	}

	e.ffmpeg, e.ffprobe, e.loaded = ffmpeg, ffprobe, true
	e.logger.Info("transcoding engine loaded", zap.String("ffmpeg", ffmpeg), zap.String("ffprobe", ffprobe))
	return nil
}

// Health reports the availability of the engine's binaries.
func (e *Engine) Health() []Status {
	return checkBinaries([]Requirement{
		{Name: "FFmpeg", Command: e.cfg.FFmpegPath, Description: "Extracts and encodes audio"},
		{Name: "FFprobe", Command: e.cfg.FFprobePath, Description: "Inspects input streams"},
	}, e.lookPath)
}

// Transcode converts req.InputBytes to an audio artifact. Progress is published to feed,
// which is closed when Transcode returns. feed may be nil.
func (e *Engine) Transcode(ctx context.Context, req model.TranscodeRequest, feed *Feed) (model.AudioArtifact, error) {
	defer feed.Close()

	if err := e.Load(); err != nil {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonEngineUnavailable, Err: err}
	}

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return model.AudioArtifact{}, contextFailure(ctx)
	}
	defer func() { <-e.slot }()

	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	started := time.Now()
	artifact, err := e.run(ctx, req, feed)
	if err != nil {
		e.logger.Warn("transcode failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return model.AudioArtifact{}, err
	}

	feed.Publish(1)
	e.logger.Info("transcode completed",
		zap.Int("input_bytes", len(req.InputBytes)),
		zap.Int("output_bytes", artifact.Size()),
		zap.Duration("elapsed", time.Since(started)))
	return artifact, nil
}

func (e *Engine) run(ctx context.Context, req model.TranscodeRequest, feed *Feed) (model.AudioArtifact, error) {
	args, err := transcodeArgs(req, InputFilename, OutputFilename)
	if err != nil {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonEngineUnavailable, Err: err}
	}

	dir, err := os.MkdirTemp(e.cfg.TempDir, "uploadai-*")
	if err != nil {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonEngineUnavailable, Err: err}
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, InputFilename), req.InputBytes, 0o600); err != nil {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonEngineUnavailable, Err: err}
	}

	probeResult, err := e.runner.Run(ctx, dir, nil, e.ffprobe, probeArgs(InputFilename)...)
	if ctx.Err() != nil {
		return model.AudioArtifact{}, contextFailure(ctx)
	}
	if err != nil {
		return model.AudioArtifact{}, &TranscodeError{
			Reason: ReasonUnsupportedContainer,
			Err:    fmt.Errorf("ffprobe: %w: %s", err, probeResult.Stderr),
		}
	}
	probe, err := parseProbe(probeResult.Stdout)
	if err != nil {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonUnsupportedContainer, Err: err}
	}
	if probe.AudioStreamCount() == 0 {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonNoAudioStream}
	}

	progress := newProgressWriter(probe.DurationSeconds(), feed.Publish)
	result, err := e.runner.Run(ctx, dir, progress, e.ffmpeg, args...)
	if ctx.Err() != nil {
		return model.AudioArtifact{}, contextFailure(ctx)
	}
	if err != nil {
		switch {
		case mentionsMissingAudio(result.Stderr):
			return model.AudioArtifact{}, &TranscodeError{Reason: ReasonNoAudioStream, Err: err}
		case result.ExitCode != 0:
			return model.AudioArtifact{}, &TranscodeError{
				Reason:   ReasonEngineExited,
				ExitCode: result.ExitCode,
				Err:      fmt.Errorf("%w: %s", err, lastLine(result.Stderr)),
			}
		default:
			return model.AudioArtifact{}, &TranscodeError{Reason: ReasonEngineUnavailable, Err: err}
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, OutputFilename))
	if err != nil || len(data) == 0 {
		return model.AudioArtifact{}, &TranscodeError{Reason: ReasonOutputMissing, Err: err}
	}

	return model.AudioArtifact{
		Bytes:    data,
		MimeType: model.AudioMimeType,
		Filename: model.AudioFilename,
	}, nil
}

func contextFailure(ctx context.Context) *TranscodeError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TranscodeError{Reason: ReasonTimedOut, Err: ctx.Err()}
	}
	return &TranscodeError{Reason: ReasonCancelled, Err: ctx.Err()}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
