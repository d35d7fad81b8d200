package checkpoint

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultStalenessBound is how far the primary tier may lag a newer copy in
// a lower tier before recovery prefers the lower tier.
const DefaultStalenessBound = 10 * time.Minute

// Coordinator fans snapshot writes out to its sinks in priority order and
// answers recovery lookups. A write failure in any tier is logged and
// swallowed; the engine loop never stops for a checkpoint. One coordinator
// is constructed per process and passed to each run.
type Coordinator struct {
	sinks     []Sink
	staleness time.Duration

	mu        sync.Mutex
	highWater map[string]float64 // runID/stage -> highest progress written
}

type Option func(*Coordinator)

// WithStalenessBound overrides the recovery staleness bound.
func WithStalenessBound(d time.Duration) Option {
	return func(c *Coordinator) { c.staleness = d }
}

// New creates a coordinator over sinks ordered by priority: index 0 is the
// primary durable tier.
func New(sinks []Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		sinks:     sinks,
		staleness: DefaultStalenessBound,
		highWater: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save writes a snapshot to every tier and reports each tier's outcome.
// Progress for a (run, stage) pair never moves backwards: a snapshot below
// the high-water mark is lifted to it before writing.
func (c *Coordinator) Save(ctx context.Context, snap Snapshot) SaveOutcome {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	key := snap.RunID + "/" + string(snap.Stage)
	c.mu.Lock()
	if hw, ok := c.highWater[key]; ok && snap.ProgressPercent < hw {
		snap.ProgressPercent = hw
	} else {
		c.highWater[key] = snap.ProgressPercent
	}
	c.mu.Unlock()

	outcome := SaveOutcome{Results: make([]TierResult, 0, len(c.sinks))}
	for i, sink := range c.sinks {
		err := sink.Write(ctx, snap)
		outcome.Results = append(outcome.Results, TierResult{Tier: i + 1, Sink: sink.Name(), Err: err})
		if err != nil {
			if i == 0 {
				log.Printf("⚠️ Checkpoint tier %d (%s) failed for run %s: %v", i+1, sink.Name(), snap.RunID, err)
			} else {
				log.Printf("Checkpoint tier %d (%s) failed for run %s: %v", i+1, sink.Name(), snap.RunID, err)
			}
		}
	}
	return outcome
}

// LastCheckpoint returns the newest snapshot for (runID, stage) across all
// tiers, preferring the primary tier unless its copy lags the newest one by
// more than the staleness bound. nil means no tier holds a snapshot. The
// coordinator only reports; deciding whether to resume is the caller's job.
func (c *Coordinator) LastCheckpoint(ctx context.Context, runID string, stage Stage) (*Snapshot, error) {
	var primary, newest *Snapshot
	for i, sink := range c.sinks {
		snap, err := sink.Latest(ctx, runID, stage)
		if err != nil {
			log.Printf("Checkpoint lookup on tier %d (%s) failed for run %s: %v", i+1, sink.Name(), runID, err)
			continue
		}
		if snap == nil {
			continue
		}
		if i == 0 {
			primary = snap
		}
		if newest == nil || snap.Timestamp.After(newest.Timestamp) {
			newest = snap
		}
	}

	if newest == nil {
		return nil, nil
	}
	if primary != nil && newest.Timestamp.Sub(primary.Timestamp) <= c.staleness {
		return primary, nil
	}
	return newest, nil
}

// Close closes every sink, returning the first error seen.
func (c *Coordinator) Close() error {
	var firstErr error
	for _, sink := range c.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
