package engine

import (
	"context"
	"sync"
)

// Registry maps active run IDs to their cancel functions so a run can be
// cancelled from outside. It is the only state shared across runs and
// carries its own lock; per-run accumulators are exclusively owned and
// never need one.
type Registry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{cancels: make(map[string]context.CancelFunc)}
}

// Add registers a running run's cancel function.
func (r *Registry) Add(runID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[runID] = cancel
}

// Cancel cancels the run and reports whether it was still active.
func (r *Registry) Cancel(runID string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[runID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Remove drops a finished run.
func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, runID)
}
