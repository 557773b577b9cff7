package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	apperrors "upload-ai/internal/app/errors"
)

// DefaultRetention is how long finished runs stay addressable.
const DefaultRetention = time.Hour

// Registry keeps runs addressable by ID for the lifetime of the process.
// Finished runs are dropped once they are older than the retention window.
type Registry struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	retention time.Duration
	now       func() time.Time
}

// NewRegistry creates an empty registry. A non-positive retention uses DefaultRetention.
func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		runs:      make(map[string]*Run),
		retention: retention,
		now:       time.Now,
	}
}

// Add stores run and prunes expired ones.
func (r *Registry) Add(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.runs[run.ID()] = run
}

// Get returns the run with the given id.
func (r *Registry) Get(id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", id)
	}
	return run, nil
}

// Cancel cancels the run with the given id and returns it.
func (r *Registry) Cancel(id string) (*Run, error) {
	run, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	run.Cancel()
	return run, nil
}

// CancelAll cancels every run that is still in progress.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	active := lo.Filter(lo.Values(r.runs), func(run *Run, _ int) bool {
		return !run.Stage().IsTerminal()
	})
	r.mu.RUnlock()

	for _, run := range active {
		run.Cancel()
	}
	return len(active)
}

// List returns all runs, newest first.
func (r *Registry) List() []*Run {
	r.mu.RLock()
	runs := lo.Values(r.runs)
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].createdAt.After(runs[j].createdAt)
	})
	return runs
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, run := range r.runs {
		snap := run.Snapshot()
		if snap.Stage.IsTerminal() && snap.FinishedAt.Before(cutoff) {
			delete(r.runs, id)
		}
	}
}
