package model

// VideoID is the opaque identifier the transcription service assigns to a video.
type VideoID string

func (id VideoID) String() string {
	return string(id)
}

const (
	DefaultTargetCodec         = "mp3"
	DefaultTargetBitrateKbps   = 20
	DefaultAudioStreamSelector = "0:a"
	AudioMimeType              = "audio/mpeg"
	AudioFilename              = "audio.mp3"
)

// TranscodeRequest describes one local transcoding job.
type TranscodeRequest struct {
	InputBytes          []byte
	TargetCodec         string
	TargetBitrateKbps   int
	AudioStreamSelector string
}

// NewTranscodeRequest applies the default mp3 @ 20 kbps profile over all audio streams.
func NewTranscodeRequest(input []byte) TranscodeRequest {
	return TranscodeRequest{
		InputBytes:          input,
		TargetCodec:         DefaultTargetCodec,
		TargetBitrateKbps:   DefaultTargetBitrateKbps,
		AudioStreamSelector: DefaultAudioStreamSelector,
	}
}

// TranscodeProgress reports how much of the input has been encoded, in [0,1].
type TranscodeProgress struct {
	FractionComplete float64 `json:"fractionComplete"`
}

// AudioArtifact is the compressed audio produced for one run.
type AudioArtifact struct {
	Bytes    []byte
	MimeType string
	Filename string
}

func (a AudioArtifact) Size() int {
	return len(a.Bytes)
}
