package pipeline

// Phase is one step of a run's lifecycle.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseConverting Phase = "converting"
	PhaseUploading  Phase = "uploading"
	PhaseGenerating Phase = "generating"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// Stage is a run's position in the state machine. FailedAt is set only when Phase is
// PhaseFailed and names the stage whose operation failed or was cancelled.
type Stage struct {
	Phase    Phase `json:"phase"`
	FailedAt Phase `json:"failedAt,omitempty"`
}

var (
	Waiting    = Stage{Phase: PhaseWaiting}
	Converting = Stage{Phase: PhaseConverting}
	Uploading  = Stage{Phase: PhaseUploading}
	Generating = Stage{Phase: PhaseGenerating}
	Success    = Stage{Phase: PhaseSuccess}
)

// Failed returns the terminal failure stage for origin.
func Failed(origin Phase) Stage {
	return Stage{Phase: PhaseFailed, FailedAt: origin}
}

// IsTerminal reports whether no further transitions can happen.
func (s Stage) IsTerminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailed
}

func (s Stage) String() string {
	if s.Phase == PhaseFailed {
		return "failed(" + string(s.FailedAt) + ")"
	}
	return string(s.Phase)
}

// hasVideoID reports whether a run in this stage must carry a video id.
func (s Stage) hasVideoID() bool {
	return s.Phase == PhaseGenerating || s.Phase == PhaseSuccess
}

// isValidTransition enforces the forward-only edges. Converting is skippable from Waiting;
// every non-terminal stage may fail in place.
func isValidTransition(from, to Stage) bool {
	if to.Phase == PhaseFailed {
		return !from.IsTerminal() && to.FailedAt == from.Phase
	}
	switch from.Phase {
	case PhaseWaiting:
		return to == Converting || to == Uploading
	case PhaseConverting:
		return to == Uploading
	case PhaseUploading:
		return to == Generating
	case PhaseGenerating:
		return to == Success
	default:
		return false
	}
}
