package model

// WorkloadRecord is a single workload cost entry from a cloud inventory.
// Records are treated as immutable for the duration of an analysis run.
type WorkloadRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MonthlyCost     float64 `json:"monthly_cost"`
	Category        string  `json:"category"`
	Region          string  `json:"region"`
	ComplexityScore int     `json:"complexity_score"` // 1 (lift-and-shift) .. 10 (full re-architecture)
	MigrationReady  bool    `json:"migration_ready"`
}

// AnalysisConfig controls batching, selection and checkpointing for a run.
// Zero values mean "use the default".
type AnalysisConfig struct {
	BatchSize                 int     `json:"batch_size"`
	YieldEveryNBatches        int     `json:"yield_every_n_batches"`
	MaxRecords                int     `json:"max_records"`
	TopK                      int     `json:"top_k"`
	CostThreshold             float64 `json:"cost_threshold"`
	CheckpointIntervalPercent float64 `json:"checkpoint_interval_percent"`
}

// Defaults applied by WithDefaults.
const (
	DefaultBatchSize                 = 10000
	DefaultYieldEveryNBatches        = 4
	DefaultMaxRecords                = 1000000
	DefaultTopK                      = 10
	DefaultCostThreshold             = 0.01
	DefaultCheckpointIntervalPercent = 5.0
)

// WithDefaults returns a copy of the config with zero values replaced by
// defaults. Negative values are left alone so misconfiguration surfaces as
// an error instead of being silently corrected.
func (c AnalysisConfig) WithDefaults() AnalysisConfig {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.YieldEveryNBatches == 0 {
		c.YieldEveryNBatches = DefaultYieldEveryNBatches
	}
	if c.MaxRecords == 0 {
		c.MaxRecords = DefaultMaxRecords
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.CostThreshold == 0 {
		c.CostThreshold = DefaultCostThreshold
	}
	if c.CheckpointIntervalPercent == 0 {
		c.CheckpointIntervalPercent = DefaultCheckpointIntervalPercent
	}
	return c
}
