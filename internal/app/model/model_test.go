package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoSourceVariants(t *testing.T) {
	data := []byte("video-bytes")
	local := NewLocalFileSource(data, "video/mp4", "clip.mp4")
	data[0] = 'X'

	assert.Equal(t, SourceLocalFile, local.Kind())
	file, ok := local.LocalFile()
	require.True(t, ok)
	assert.Equal(t, "video-bytes", string(file.Bytes), "source must not alias caller bytes")
	_, ok = local.RemoteReference()
	assert.False(t, ok)

	remote := NewRemoteReferenceSource("https://example.com/v")
	assert.Equal(t, SourceRemoteReference, remote.Kind())
	ref, ok := remote.RemoteReference()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/v", ref.URL)
	_, ok = remote.LocalFile()
	assert.False(t, ok)

	var empty VideoSource
	assert.Equal(t, SourceUnknown, empty.Kind())
	assert.Equal(t, "<empty source>", empty.Describe())
}

func TestNewTranscodeRequestDefaults(t *testing.T) {
	req := NewTranscodeRequest([]byte{1, 2})
	assert.Equal(t, "mp3", req.TargetCodec)
	assert.Equal(t, 20, req.TargetBitrateKbps)
	assert.Equal(t, "0:a", req.AudioStreamSelector)
	assert.Len(t, req.InputBytes, 2)
}

func TestFFProbeOutput(t *testing.T) {
	raw := `{
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "h264"},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}
		],
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.500000"}
	}`

	var out FFProbeOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, 1, out.AudioStreamCount())
	assert.InDelta(t, 12.5, out.DurationSeconds(), 1e-9)

	out.Format.Duration = "N/A"
	assert.Zero(t, out.DurationSeconds())
}
