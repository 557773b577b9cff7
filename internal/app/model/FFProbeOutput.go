package model

import (
	"strconv"
	"strings"
)

type FFProbeOutput struct {
	Streams []FFProbeStream `json:"streams"`
	Format  FFProbeFormat   `json:"format"`
}

type FFProbeStream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

type FFProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// AudioStreamCount returns how many audio streams the container carries.
func (o FFProbeOutput) AudioStreamCount() int {
	count := 0
	for _, stream := range o.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration, or 0 when ffprobe could not tell.
func (o FFProbeOutput) DurationSeconds() float64 {
	value := strings.TrimSpace(o.Format.Duration)
	if value == "" {
		return 0
	}
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}
