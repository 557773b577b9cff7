package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-ai/internal/app/model"
)

// mp4Header is the start of an ISO base media file with an mp4 brand.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

func TestResolveLocalFile(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		wantMime string
		wantName string
	}{
		{
			name:     "declared mp4",
			input:    Input{Data: []byte("anything"), MimeType: "video/mp4", Filename: "talk.mp4"},
			wantMime: "video/mp4",
			wantName: "talk.mp4",
		},
		{
			name:     "declared type with parameters",
			input:    Input{Data: []byte("anything"), MimeType: "Video/WebM; codecs=vp9", Filename: "a.webm"},
			wantMime: "video/webm",
			wantName: "a.webm",
		},
		{
			name:     "sniffed when undeclared",
			input:    Input{Data: mp4Header},
			wantMime: "video/mp4",
			wantName: "video.mp4",
		},
		{
			name:     "sniffed when octet-stream",
			input:    Input{Data: mp4Header, MimeType: "application/octet-stream", Filename: "upload"},
			wantMime: "video/mp4",
			wantName: "upload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Resolve(tt.input)
			require.NoError(t, err)
			file, ok := src.LocalFile()
			require.True(t, ok)
			assert.Equal(t, tt.wantMime, file.MimeType)
			assert.Equal(t, tt.wantName, file.Filename)
			assert.Equal(t, tt.input.Data, file.Bytes)
		})
	}
}

func TestResolveURL(t *testing.T) {
	src, err := Resolve(Input{URL: "  https://example.com/v  "})
	require.NoError(t, err)
	assert.Equal(t, model.SourceRemoteReference, src.Kind())
	ref, _ := src.RemoteReference()
	assert.Equal(t, "https://example.com/v", ref.URL)
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		wantField string
	}{
		{"empty input", Input{}, ""},
		{"both modes", Input{Data: []byte("x"), MimeType: "video/mp4", URL: "https://example.com/v"}, ""},
		{"audio mime", Input{Data: []byte("x"), MimeType: "audio/mpeg"}, "mime type"},
		{"image sniffed", Input{Data: []byte("\x89PNG\r\n\x1a\n0000")}, "mime type"},
		{"malformed mime", Input{Data: []byte("x"), MimeType: "video/"}, "mime type"},
		{"relative url", Input{URL: "/videos/1"}, "url"},
		{"ftp url", Input{URL: "ftp://example.com/v"}, "url"},
		{"no host", Input{URL: "https:///path"}, "url"},
		{"unparseable url", Input{URL: "http://[::1"}, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.input)
			require.Error(t, err)

			var invalid *InvalidSourceError
			require.True(t, errors.As(err, &invalid), "got %T", err)
			assert.Equal(t, tt.wantField, invalid.Field)
		})
	}
}

func TestIsSupportedContainer(t *testing.T) {
	assert.True(t, IsSupportedContainer("video/mp4"))
	assert.True(t, IsSupportedContainer("VIDEO/QUICKTIME"))
	assert.False(t, IsSupportedContainer("audio/mpeg"))
	assert.False(t, IsSupportedContainer(""))
}
