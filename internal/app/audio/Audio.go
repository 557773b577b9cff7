package audio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"upload-ai/internal/app/model"
)

// Fixed names inside the per-job scratch directory.
const (
	InputFilename  = "input.mp4"
	OutputFilename = "output.mp3"
)

var codecEncoders = map[string]string{
	"mp3": "libmp3lame",
}

// probeArgs builds the ffprobe invocation used to inspect the input.
func probeArgs(input string) []string {
	return []string{"-v", "error", "-show_format", "-show_streams", "-of", "json", input}
}

// transcodeArgs builds the ffmpeg invocation. It selects the requested audio streams,
// encodes them with the target codec at the target bitrate and reports progress on stdout.
func transcodeArgs(req model.TranscodeRequest, input, output string) ([]string, error) {
	encoder, ok := codecEncoders[strings.ToLower(req.TargetCodec)]
	if !ok {
		return nil, fmt.Errorf("unsupported target codec %q", req.TargetCodec)
	}
	if req.TargetBitrateKbps <= 0 {
		return nil, fmt.Errorf("invalid target bitrate %d", req.TargetBitrateKbps)
	}
	selector := req.AudioStreamSelector
	if selector == "" {
		selector = model.DefaultAudioStreamSelector
	}

	return []string{
		"-hide_banner", "-nostats", "-y",
		"-progress", "pipe:1",
		"-i", input,
		"-map", selector,
		"-b:a", fmt.Sprintf("%dk", req.TargetBitrateKbps),
		"-acodec", encoder,
		output,
	}, nil
}

func parseProbe(output []byte) (model.FFProbeOutput, error) {
	var probe model.FFProbeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return model.FFProbeOutput{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return probe, nil
}

// progressWriter turns ffmpeg's -progress key=value stream into fractions of durationSeconds.
type progressWriter struct {
	mu       sync.Mutex
	buf      []byte
	duration float64
	publish  func(float64)
}

func newProgressWriter(durationSeconds float64, publish func(float64)) *progressWriter {
	return &progressWriter{duration: durationSeconds, publish: publish}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		w.handleLine(string(w.buf[:idx]))
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

func (w *progressWriter) handleLine(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		if w.duration <= 0 {
			return
		}
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		w.publish(float64(us) / 1e6 / w.duration)
	case "progress":
		if value == "end" {
			w.publish(1)
		}
	}
}

// mentionsMissingAudio reports whether ffmpeg's stderr says the stream selector matched nothing.
func mentionsMissingAudio(stderr string) bool {
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := strings.ToLower(scanner.Text())
		if strings.Contains(line, "matches no streams") || strings.Contains(line, "does not contain any stream") {
			return true
		}
	}
	return false
}
