package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/model"
)

var (
	// ErrCancelled is attached to runs stopped through Cancel.
	ErrCancelled = errors.New("cancelled")
	// ErrEmptySource is attached to runs submitted without a source.
	ErrEmptySource = errors.New("source is empty")

	errTerminal = errors.New("run already finished")
)

// ErrorInfo records why a run failed.
type ErrorInfo struct {
	Origin     Phase
	Reason     string
	StatusCode int
	Err        error
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Origin, e.Reason)
}

func (e *ErrorInfo) Unwrap() error {
	return e.Err
}

// Snapshot is a consistent copy of a run's state.
type Snapshot struct {
	ID         string
	SourceKind model.SourceKind
	Source     string
	Prompt     string
	Stage      Stage
	VideoID    model.VideoID
	Error      *ErrorInfo
	Progress   model.TranscodeProgress
	CreatedAt  time.Time
	FinishedAt time.Time
}

// transition describes one stage change. Hooks run under the run's lock and must not call
// back into the run.
type transition struct {
	RunID      string
	SourceKind model.SourceKind
	From       Stage
	To         Stage
	Elapsed    time.Duration
	VideoID    model.VideoID
	Error      *ErrorInfo
}

type transitionHook func(transition)

// Run is one submission. Only the Machine that created it advances it; any goroutine may
// observe or cancel it.
type Run struct {
	id        string
	source    model.VideoSource
	prompt    string
	createdAt time.Time
	feed      *audio.Feed
	cancelCtx context.CancelFunc
	onChange  transitionHook
	now       func() time.Time

	mu         sync.Mutex
	stage      Stage
	enteredAt  time.Time
	history    []Stage
	videoID    model.VideoID
	errInfo    *ErrorInfo
	finishedAt time.Time
	changed    chan struct{}
	done       chan struct{}
}

func newRun(id string, source model.VideoSource, prompt string, cancel context.CancelFunc, now func() time.Time, hook transitionHook) *Run {
	created := now()
	return &Run{
		id:        id,
		source:    source,
		prompt:    prompt,
		createdAt: created,
		feed:      audio.NewFeed(),
		cancelCtx: cancel,
		onChange:  hook,
		now:       now,
		stage:     Waiting,
		enteredAt: created,
		history:   []Stage{Waiting},
		changed:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Prompt returns the prompt exactly as submitted.
func (r *Run) Prompt() string { return r.prompt }

// Source returns the submitted source.
func (r *Run) Source() model.VideoSource { return r.source }

// Feed returns the transcoding progress feed. It is closed once conversion is over or
// skipped.
func (r *Run) Feed() *audio.Feed { return r.feed }

// Progress returns the latest transcoding progress.
func (r *Run) Progress() model.TranscodeProgress { return r.feed.Latest() }

// Done is closed when the run reaches a terminal stage.
func (r *Run) Done() <-chan struct{} { return r.done }

// Stage returns the current stage.
func (r *Run) Stage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// Snapshot returns a consistent copy of the run's state.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		ID:         r.id,
		SourceKind: r.source.Kind(),
		Source:     r.source.Describe(),
		Prompt:     r.prompt,
		Stage:      r.stage,
		VideoID:    r.videoID,
		Progress:   r.feed.Latest(),
		CreatedAt:  r.createdAt,
		FinishedAt: r.finishedAt,
	}
	if r.errInfo != nil {
		info := *r.errInfo
		snap.Error = &info
	}
	return snap
}

// Cancel stops the run. A non-terminal run moves to Failed at its current stage with reason
// "cancelled" and any in-flight operation is aborted. Cancelling a finished run does nothing.
func (r *Run) Cancel() {
	r.mu.Lock()
	err := r.failLocked(&ErrorInfo{Reason: ErrCancelled.Error(), Err: ErrCancelled})
	r.mu.Unlock()

	if err == nil {
		r.cancelCtx()
	}
}

// Observe streams the run's stages, starting from Waiting, until the terminal stage has been
// delivered; then the channel is closed. Every call replays the same ordered sequence.
// Cancelling ctx stops the stream early.
func (r *Run) Observe(ctx context.Context) <-chan Stage {
	out := make(chan Stage, 5)

	go func() {
		defer close(out)
		next := 0
		for {
			r.mu.Lock()
			pending := append([]Stage(nil), r.history[next:]...)
			next = len(r.history)
			terminal := r.stage.IsTerminal()
			changed := r.changed
			r.mu.Unlock()

			for _, stage := range pending {
				select {
				case out <- stage:
				case <-ctx.Done():
					return
				}
			}
			if terminal {
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Wait blocks until the run finishes or ctx is done.
func (r *Run) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}

func (r *Run) advance(to Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitionLocked(to)
}

// advanceWithVideo sets the video id together with the move to Generating so that the id is
// never visible outside Generating and Success.
func (r *Run) advanceWithVideo(id model.VideoID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stage.IsTerminal() {
		return errTerminal
	}
	if !isValidTransition(r.stage, Generating) {
		return fmt.Errorf("invalid transition: %s -> %s", r.stage, Generating)
	}
	r.videoID = id
	return r.transitionLocked(Generating)
}

func (r *Run) fail(info *ErrorInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failLocked(info)
}

func (r *Run) failLocked(info *ErrorInfo) error {
	if r.stage.IsTerminal() {
		return errTerminal
	}
	info.Origin = r.stage.Phase
	r.videoID = ""
	r.errInfo = info
	return r.transitionLocked(Failed(r.stage.Phase))
}

func (r *Run) transitionLocked(to Stage) error {
	if r.stage.IsTerminal() {
		return errTerminal
	}
	if !isValidTransition(r.stage, to) {
		return fmt.Errorf("invalid transition: %s -> %s", r.stage, to)
	}

	from := r.stage
	now := r.now()
	elapsed := now.Sub(r.enteredAt)

	r.stage = to
	r.enteredAt = now
	r.history = append(r.history, to)
	if to.IsTerminal() {
		r.finishedAt = now
		close(r.done)
	}
	close(r.changed)
	r.changed = make(chan struct{})

	if r.onChange != nil {
		r.onChange(transition{
			RunID:      r.id,
			SourceKind: r.source.Kind(),
			From:       from,
			To:         to,
			Elapsed:    elapsed,
			VideoID:    r.videoID,
			Error:      r.errInfo,
		})
	}
	return nil
}
