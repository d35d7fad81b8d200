package engine

import (
	"fmt"
	"time"

	"go-cost-insights/internal/model"
)

// StageTimer captures per-stage wall-clock metrics for a run. Timings live
// next to the result, never inside it.
type StageTimer struct {
	metrics    model.RunMetrics
	stage      string
	stageStart time.Time
}

func NewStageTimer(runID string) *StageTimer {
	return &StageTimer{metrics: model.RunMetrics{
		RunID:     runID,
		StartTime: time.Now().UTC(),
	}}
}

// StartStage marks the beginning of a stage.
func (t *StageTimer) StartStage(stage string) {
	t.stage = stage
	t.stageStart = time.Now().UTC()
}

// EndStage records the current stage's timing.
func (t *StageTimer) EndStage(stage string, recordsProcessed int) {
	end := time.Now().UTC()
	t.metrics.Stages = append(t.metrics.Stages, model.StageTiming{
		Stage:            stage,
		StartTime:        t.stageStart,
		EndTime:          end,
		DurationMs:       end.Sub(t.stageStart).Milliseconds(),
		RecordsProcessed: recordsProcessed,
	})
	fmt.Printf("📊 Stage '%s' completed: %d records in %v\n", stage, recordsProcessed, end.Sub(t.stageStart))
}

// Finish seals and returns the collected metrics.
func (t *StageTimer) Finish() model.RunMetrics {
	t.metrics.EndTime = time.Now().UTC()
	return t.metrics
}
