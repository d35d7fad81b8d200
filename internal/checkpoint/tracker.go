package checkpoint

import "context"

// RunTracker drives the checkpoint state machine for a single run:
// NotStarted -> Running -> {Completed | Failed | Cancelled}. It is owned by
// one run goroutine and is not safe for concurrent use; per-run state needs
// no lock because nothing else touches it.
type RunTracker struct {
	coord     *Coordinator
	runID     string
	interval  float64
	state     RunState
	stage     Stage
	progress  float64
	lastSaved float64
}

// Track starts tracking a run. intervalPercent gates how often Progress
// actually writes a snapshot.
func (c *Coordinator) Track(runID string, intervalPercent float64) *RunTracker {
	if intervalPercent <= 0 {
		intervalPercent = 5
	}
	return &RunTracker{
		coord:    c,
		runID:    runID,
		interval: intervalPercent,
		state:    StateNotStarted,
	}
}

// State returns the run's current lifecycle position.
func (t *RunTracker) State() RunState {
	return t.state
}

func (t *RunTracker) terminal() bool {
	return t.state == StateCompleted || t.state == StateFailed || t.state == StateCancelled
}

func (t *RunTracker) save(ctx context.Context, stage Stage, percent float64, summary map[string]interface{}) SaveOutcome {
	payload := map[string]interface{}{"state": string(t.state)}
	for k, v := range summary {
		payload[k] = v
	}
	return t.coord.Save(ctx, Snapshot{
		RunID:           t.runID,
		Stage:           stage,
		ProgressPercent: percent,
		PayloadSummary:  payload,
	})
}

// EnterStage records a stage transition with an unconditional write.
func (t *RunTracker) EnterStage(ctx context.Context, stage Stage, percent float64, summary map[string]interface{}) {
	if t.terminal() {
		return
	}
	t.state = StateRunning
	t.stage = stage
	t.progress = percent
	t.lastSaved = percent
	t.save(ctx, stage, percent, summary)
}

// Progress advances the run's progress, writing a snapshot only once the
// configured interval of progress has accumulated since the last write.
func (t *RunTracker) Progress(ctx context.Context, percent float64, summary map[string]interface{}) {
	if t.state != StateRunning {
		return
	}
	if percent < t.progress {
		percent = t.progress
	}
	t.progress = percent
	if percent-t.lastSaved < t.interval {
		return
	}
	t.lastSaved = percent
	t.save(ctx, t.stage, percent, summary)
}

// Complete transitions the run to Completed and checkpoints it at 100%.
func (t *RunTracker) Complete(ctx context.Context, summary map[string]interface{}) {
	if t.terminal() {
		return
	}
	t.state = StateCompleted
	t.progress = 100
	t.save(ctx, StageCompleted, 100, summary)
}

// Fail transitions the run to Failed, keeping its last known progress.
func (t *RunTracker) Fail(ctx context.Context, runErr error) {
	if t.terminal() {
		return
	}
	t.state = StateFailed
	summary := map[string]interface{}{}
	if runErr != nil {
		summary["error"] = runErr.Error()
	}
	t.save(ctx, t.stage, t.progress, summary)
}

// Cancel transitions the run to Cancelled. The final snapshot carries the
// partial progress, strictly below 100%.
func (t *RunTracker) Cancel(ctx context.Context, summary map[string]interface{}) {
	if t.terminal() {
		return
	}
	t.state = StateCancelled
	t.save(ctx, t.stage, t.progress, summary)
}
