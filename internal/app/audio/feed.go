package audio

import (
	"fmt"
	"sync"

	"upload-ai/internal/app/model"
)

// Feed carries transcoding progress from the engine to any number of readers.
//
// It keeps only the latest value. Publish never blocks: readers wait on Changed and then
// read Latest, so intermediate values may be skipped. Values never decrease.
type Feed struct {
	mu      sync.Mutex
	latest  float64
	changed chan struct{}
	done    chan struct{}
	closed  bool
}

// NewFeed returns an open feed at 0.
func NewFeed() *Feed {
	return &Feed{
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Publish records fraction, clamped to [0,1]. Lower values than the current one and
// calls after Close are ignored.
func (f *Feed) Publish(fraction float64) {
	if f == nil {
		return
	}
	if fraction < 0 || fraction != fraction {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || fraction <= f.latest {
		return
	}
	f.latest = fraction
	close(f.changed)
	f.changed = make(chan struct{})
}

// Latest returns the most recent progress.
func (f *Feed) Latest() model.TranscodeProgress {
	if f == nil {
		return model.TranscodeProgress{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.TranscodeProgress{FractionComplete: f.latest}
}

// String reports the latest value. fmt uses it instead of walking the guarded fields.
func (f *Feed) String() string {
	if f == nil {
		return "Feed(<nil>)"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("Feed(%.2f closed=%t)", f.latest, f.closed)
}

// Changed returns a channel closed on the next increase.
func (f *Feed) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

// Done is closed once the job that owns the feed has finished, successfully or not.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Close ends the sequence. It is safe to call more than once.
func (f *Feed) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
}
