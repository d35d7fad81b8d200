package model

import "time"

// Run status values reported in Diagnostics.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RankedRecord is a workload that made it into one of the ranked lists,
// together with its derived migration scores.
type RankedRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Region          string  `json:"region"`
	MonthlyCost     float64 `json:"monthly_cost"`
	PriorityScore   float64 `json:"priority_score"`
	SavingsEstimate float64 `json:"savings_estimate"`
}

// CategoryRollup summarizes one spend category.
type CategoryRollup struct {
	Category    string         `json:"category"`
	Count       int            `json:"count"`
	TotalCost   float64        `json:"total_cost"`
	TopServices []RankedRecord `json:"top_services"`
}

// StatsSummary holds the cost distribution over all valid records.
type StatsSummary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
}

// Diagnostics reports how the run treated its input.
type Diagnostics struct {
	ProcessedRecordCount int    `json:"processed_record_count"`
	SkippedRecordCount   int    `json:"skipped_record_count"`
	Truncated            bool   `json:"truncated"`
	Status               string `json:"status"`
}

// AnalysisResult is the full output of a run. It is a pure function of the
// input records and config: no wall-clock fields, so identical inputs
// produce identical serialized results.
type AnalysisResult struct {
	RunID                  string           `json:"run_id"`
	TopCost                []RankedRecord   `json:"top_cost"`
	HighCostAnomalies      []RankedRecord   `json:"high_cost_anomalies"`
	OptimizationCandidates []RankedRecord   `json:"optimization_candidates"`
	Rollups                []CategoryRollup `json:"rollups"`
	Stats                  StatsSummary     `json:"stats"`
	Diagnostics            Diagnostics      `json:"diagnostics"`
}

// StageTiming records wall-clock timing for one stage of a run.
type StageTiming struct {
	Stage            string    `json:"stage"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationMs       int64     `json:"duration_ms"`
	RecordsProcessed int       `json:"records_processed"`
}

// RunMetrics collects per-stage timings for a run. Kept separate from
// AnalysisResult so timing jitter never leaks into the result payload.
type RunMetrics struct {
	RunID     string        `json:"run_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Stages    []StageTiming `json:"stages"`
}
