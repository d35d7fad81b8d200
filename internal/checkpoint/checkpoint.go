package checkpoint

import (
	"context"
	"time"
)

// Stage identifies the part of a run a snapshot was taken in.
type Stage string

const (
	StageTraversal   Stage = "traversal"
	StageAggregation Stage = "aggregation"
	StageStatistics  Stage = "statistics"
	StageTopK        Stage = "topk"
	StageCompleted   Stage = "completed"
)

// Stages lists the analysis stages in execution order.
var Stages = []Stage{StageTraversal, StageAggregation, StageStatistics, StageTopK, StageCompleted}

// RunState is the lifecycle position of a run.
type RunState string

const (
	StateNotStarted RunState = "not_started"
	StateRunning    RunState = "running"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
	StateCancelled  RunState = "cancelled"
)

// Snapshot is one checkpoint entry: a flat, serializable record of how far
// a run has progressed. PayloadSummary holds a small summary of accumulator
// state (counts, bucket totals), never the accumulators themselves.
type Snapshot struct {
	RunID           string                 `json:"run_id"`
	Stage           Stage                  `json:"stage"`
	ProgressPercent float64                `json:"progress_percent"`
	PayloadSummary  map[string]interface{} `json:"payload_summary,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Sink is one durability tier for snapshots.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap Snapshot) error
	// Latest returns the newest snapshot held for (runID, stage), or nil
	// when the sink has none.
	Latest(ctx context.Context, runID string, stage Stage) (*Snapshot, error)
	Close() error
}

// TierResult is the outcome of a single tier's write attempt.
type TierResult struct {
	Tier int    `json:"tier"`
	Sink string `json:"sink"`
	Err  error  `json:"-"`
}

// SaveOutcome aggregates the per-tier results of one checkpoint save.
type SaveOutcome struct {
	Results []TierResult
}

// Durable reports whether the primary tier accepted the write.
func (o SaveOutcome) Durable() bool {
	return len(o.Results) > 0 && o.Results[0].Err == nil
}

// Failed lists the tiers that rejected the write.
func (o SaveOutcome) Failed() []TierResult {
	var failed []TierResult
	for _, r := range o.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
