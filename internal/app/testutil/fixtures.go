package testutil

import (
	"upload-ai/internal/app/model"
)

// SampleMP4 is the start of an ISO base media file with an mp4 brand. Content sniffing
// recognises it as video/mp4; it is not decodable.
var SampleMP4 = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	0x00, 0x00, 0x00, 0x08, 'f', 'r', 'e', 'e',
}

// SampleMP3 stands in for transcoded audio.
var SampleMP3 = []byte("ID3\x04\x00\x00\x00\x00\x00\x00mock-mp3-frames")

// Sample identifiers and inputs shared by tests.
const (
	SampleVideoID  model.VideoID = "9f1c2d3e-0000-4000-8000-000000000001"
	SampleURL                    = "https://example.com/v"
	SamplePrompt                 = "keywords"
	SamplePromptCS               = "golang, ffmpeg, transcription"
)

// LocalSource returns a local-file source around SampleMP4.
func LocalSource() model.VideoSource {
	return model.NewLocalFileSource(SampleMP4, "video/mp4", "clip.mp4")
}

// RemoteSource returns a remote-reference source for SampleURL.
func RemoteSource() model.VideoSource {
	return model.NewRemoteReferenceSource(SampleURL)
}

// SampleArtifact returns the artifact a successful transcode of SampleMP4 would yield.
func SampleArtifact() model.AudioArtifact {
	return model.AudioArtifact{
		Bytes:    append([]byte(nil), SampleMP3...),
		MimeType: model.AudioMimeType,
		Filename: model.AudioFilename,
	}
}
