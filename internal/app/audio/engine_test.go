package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "upload-ai/internal/app/errors"
	"upload-ai/internal/app/model"
)

const probeWithAudio = `{
	"streams": [
		{"index": 0, "codec_type": "video", "codec_name": "h264"},
		{"index": 1, "codec_type": "audio", "codec_name": "aac"}
	],
	"format": {"format_name": "mov,mp4", "duration": "4.0"}
}`

const probeVideoOnly = `{
	"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264"}],
	"format": {"format_name": "mov,mp4", "duration": "4.0"}
}`

type fakeCall struct {
	name string
	args []string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []fakeCall
	probe   func(ctx context.Context, dir string) (commandResult, error)
	convert func(ctx context.Context, dir string, stdout io.Writer) (commandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) (commandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: name, args: args})
	f.mu.Unlock()

	if name == "/usr/bin/ffprobe" {
		return f.probe(ctx, dir)
	}
	return f.convert(ctx, dir, stdout)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okProbe(context.Context, string) (commandResult, error) {
	return commandResult{Stdout: []byte(probeWithAudio)}, nil
}

func okConvert(_ context.Context, dir string, stdout io.Writer) (commandResult, error) {
	if _, err := os.Stat(filepath.Join(dir, InputFilename)); err != nil {
		return commandResult{ExitCode: 1}, err
	}
	_, _ = io.WriteString(stdout, "out_time_us=1000000\nprogress=continue\nout_time_us=3000000\nprogress=end\n")
	return commandResult{}, os.WriteFile(filepath.Join(dir, OutputFilename), []byte("ID3mp3data"), 0o600)
}

func newTestEngine(t *testing.T, runner *fakeRunner) *Engine {
	t.Helper()
	engine := NewEngine(EngineConfig{TempDir: t.TempDir()}, nil)
	engine.runner = runner
	engine.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	return engine
}

func TestTranscodeSuccess(t *testing.T) {
	runner := &fakeRunner{probe: okProbe, convert: okConvert}
	engine := newTestEngine(t, runner)
	feed := NewFeed()

	artifact, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), feed)
	require.NoError(t, err)

	assert.Equal(t, "ID3mp3data", string(artifact.Bytes))
	assert.Equal(t, "audio/mpeg", artifact.MimeType)
	assert.Equal(t, "audio.mp3", artifact.Filename)
	assert.Equal(t, 1.0, feed.Latest().FractionComplete)

	select {
	case <-feed.Done():
	default:
		t.Fatal("feed not closed after transcode")
	}

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "/usr/bin/ffprobe", runner.calls[0].name)
	assert.Equal(t, "/usr/bin/ffmpeg", runner.calls[1].name)
	assert.Contains(t, runner.calls[1].args, "libmp3lame")
}

func TestTranscodeFailures(t *testing.T) {
	tests := []struct {
		name       string
		probe      func(context.Context, string) (commandResult, error)
		convert    func(context.Context, string, io.Writer) (commandResult, error)
		wantReason string
		wantText   string
	}{
		{
			name: "no audio stream in probe",
			probe: func(context.Context, string) (commandResult, error) {
				return commandResult{Stdout: []byte(probeVideoOnly)}, nil
			},
			wantReason: ReasonNoAudioStream,
			wantText:   "no audio stream",
		},
		{
			name: "unreadable container",
			probe: func(context.Context, string) (commandResult, error) {
				return commandResult{Stderr: "Invalid data found", ExitCode: 1}, errors.New("exit status 1")
			},
			wantReason: ReasonUnsupportedContainer,
		},
		{
			name:  "selector matches nothing",
			probe: okProbe,
			convert: func(context.Context, string, io.Writer) (commandResult, error) {
				return commandResult{Stderr: "Stream map '0:a' matches no streams.", ExitCode: 1}, errors.New("exit status 1")
			},
			wantReason: ReasonNoAudioStream,
		},
		{
			name:  "non-zero exit",
			probe: okProbe,
			convert: func(context.Context, string, io.Writer) (commandResult, error) {
				return commandResult{Stderr: "Conversion failed!", ExitCode: 69}, errors.New("exit status 69")
			},
			wantReason: ReasonEngineExited,
			wantText:   "engine exited with status 69",
		},
		{
			name:  "no output written",
			probe: okProbe,
			convert: func(context.Context, string, io.Writer) (commandResult, error) {
				return commandResult{}, nil
			},
			wantReason: ReasonOutputMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{probe: tt.probe, convert: tt.convert}
			engine := newTestEngine(t, runner)

			_, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), nil)
			require.Error(t, err)

			var te *TranscodeError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.wantReason, te.Reason)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, te.Summary())
			}
		})
	}
}

func TestTranscodeEngineUnavailable(t *testing.T) {
	runner := &fakeRunner{probe: okProbe, convert: okConvert}
	engine := newTestEngine(t, runner)
	engine.lookPath = func(name string) (string, error) {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}

	_, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), nil)

	var te *TranscodeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonEngineUnavailable, te.Reason)
	assert.ErrorIs(t, err, apperrors.ErrEngineUnavailable)
	assert.Zero(t, runner.callCount())
}

func TestLoadIsMemoized(t *testing.T) {
	engine := newTestEngine(t, &fakeRunner{})
	lookups := 0
	engine.lookPath = func(name string) (string, error) {
		lookups++
		return "/opt/" + name, nil
	}

	require.NoError(t, engine.Load())
	require.NoError(t, engine.Load())
	assert.Equal(t, 2, lookups, "one lookup per binary on first load only")
}

func TestLoadRetriesAfterFailure(t *testing.T) {
	engine := newTestEngine(t, &fakeRunner{})
	available := false
	engine.lookPath = func(name string) (string, error) {
		if !available {
			return "", errors.New("not found")
		}
		return "/opt/" + name, nil
	}

	require.Error(t, engine.Load())
	available = true
	require.NoError(t, engine.Load())
}

func TestTranscodeRunsOneJobAtATime(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0

	runner := &fakeRunner{
		probe: okProbe,
		convert: func(ctx context.Context, dir string, stdout io.Writer) (commandResult, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return okConvert(ctx, dir, stdout)
		},
	}
	engine := newTestEngine(t, runner)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestTranscodeCancelledWhileQueued(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{
		probe: okProbe,
		convert: func(ctx context.Context, dir string, stdout io.Writer) (commandResult, error) {
			<-release
			return okConvert(ctx, dir, stdout)
		},
	}
	engine := newTestEngine(t, runner)

	firstDone := make(chan error, 1)
	go func() {
		_, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), nil)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return runner.callCount() == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	feed := NewFeed()
	_, err := engine.Transcode(ctx, model.NewTranscodeRequest([]byte("mp4")), feed)

	var te *TranscodeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonCancelled, te.Reason)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-feed.Done():
	default:
		t.Fatal("feed of a cancelled job must be closed")
	}

	close(release)
	assert.NoError(t, <-firstDone)
}

func TestTranscodeCancelledWhileRunning(t *testing.T) {
	runner := &fakeRunner{
		probe: okProbe,
		convert: func(ctx context.Context, dir string, stdout io.Writer) (commandResult, error) {
			<-ctx.Done()
			return commandResult{ExitCode: -1}, errors.New("signal: killed")
		},
	}
	engine := newTestEngine(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for runner.callCount() < 2 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	_, err := engine.Transcode(ctx, model.NewTranscodeRequest([]byte("mp4")), nil)

	var te *TranscodeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonCancelled, te.Reason)
}

func TestTranscodeJobTimeout(t *testing.T) {
	runner := &fakeRunner{
		probe: okProbe,
		convert: func(ctx context.Context, dir string, stdout io.Writer) (commandResult, error) {
			<-ctx.Done()
			return commandResult{ExitCode: -1}, errors.New("signal: killed")
		},
	}
	engine := newTestEngine(t, runner)
	engine.cfg.JobTimeout = 20 * time.Millisecond

	_, err := engine.Transcode(context.Background(), model.NewTranscodeRequest([]byte("mp4")), nil)

	var te *TranscodeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonTimedOut, te.Reason)
}

func TestEngineHealth(t *testing.T) {
	engine := newTestEngine(t, &fakeRunner{})
	engine.lookPath = func(name string) (string, error) {
		if name == "ffprobe" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}

	statuses := engine.Health()
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Available)
	assert.Equal(t, "/usr/bin/ffmpeg", statuses[0].Command)
	assert.False(t, statuses[1].Available)
	assert.Equal(t, `binary "ffprobe" not found`, statuses[1].Detail)
}
