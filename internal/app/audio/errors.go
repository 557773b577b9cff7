package audio

import "fmt"

// Failure reasons carried by TranscodeError.
const (
	ReasonEngineUnavailable    = "engine unavailable"
	ReasonNoAudioStream        = "no audio stream"
	ReasonUnsupportedContainer = "unsupported container"
	ReasonEngineExited         = "engine exited"
	ReasonOutputMissing        = "output missing"
	ReasonCancelled            = "cancelled"
	ReasonTimedOut             = "timed out"
)

// TranscodeError is returned by Engine.Transcode. The engine never retries.
type TranscodeError struct {
	Reason   string
	ExitCode int
	Err      error
}

// Summary is the short, user-facing description of the failure.
func (e *TranscodeError) Summary() string {
	if e.Reason == ReasonEngineExited {
		return fmt.Sprintf("%s with status %d", e.Reason, e.ExitCode)
	}
	return e.Reason
}

func (e *TranscodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode: %s: %v", e.Summary(), e.Err)
	}
	return "transcode: " + e.Summary()
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
