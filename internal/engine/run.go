package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-cost-insights/internal/checkpoint"
	"go-cost-insights/internal/model"
)

// Overall progress bands per stage. The census sweep owns 0-25%, the
// completion checkpoint is the only write at 100%.
const (
	bandTraversalEnd   = 25.0
	bandAggregationEnd = 50.0
	bandStatisticsEnd  = 85.0
	bandTopKEnd        = 95.0
)

// Run executes a full analysis over records: a census sweep that counts and
// validates, the categorical aggregation, the statistical passes, and the
// top-k selection, checkpointing through coord as it goes. Cancellation
// yields a partial result and no error; only misconfiguration or a broken
// stage returns one. The result is a pure function of records and cfg.
func Run(ctx context.Context, runID string, records []model.WorkloadRecord, cfg model.AnalysisConfig, coord *checkpoint.Coordinator) (*model.AnalysisResult, *model.RunMetrics, error) {
	cfg = cfg.WithDefaults()
	start := time.Now()
	fmt.Printf("🚀 Starting analysis run %s: %d records\n", runID, len(records))

	timer := NewStageTimer(runID)
	tracker := coord.Track(runID, cfg.CheckpointIntervalPercent)

	result := &model.AnalysisResult{
		RunID:                  runID,
		TopCost:                []model.RankedRecord{},
		HighCostAnomalies:      []model.RankedRecord{},
		OptimizationCandidates: []model.RankedRecord{},
		Rollups:                []model.CategoryRollup{},
		Diagnostics:            model.Diagnostics{Status: model.StatusSuccess},
	}

	opts := TraverseOptions{
		BatchSize:          cfg.BatchSize,
		YieldEveryNBatches: cfg.YieldEveryNBatches,
		MaxRecords:         cfg.MaxRecords,
	}

	// --- TRAVERSAL (census) ---
	fmt.Println("🔍 Starting traversal stage...")
	timer.StartStage(string(checkpoint.StageTraversal))
	tracker.EnterStage(ctx, checkpoint.StageTraversal, 0, nil)

	var valid, skipped int
	censusOpts := opts
	censusOpts.OnBatchDone = func(processed, total int) {
		tracker.Progress(ctx, band(0, bandTraversalEnd, processed, total), map[string]interface{}{
			"processed": processed,
			"skipped":   skipped,
		})
	}
	sweep, err := Traverse(ctx, records, censusOpts, func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			skipped++
			return
		}
		valid++
	})
	result.Diagnostics.ProcessedRecordCount = sweep.Processed
	result.Diagnostics.SkippedRecordCount = skipped
	result.Diagnostics.Truncated = sweep.Truncated
	if err != nil {
		return failRun(ctx, result, timer, tracker, fmt.Errorf("traversal stage: %w", err))
	}
	timer.EndStage(string(checkpoint.StageTraversal), sweep.Processed)
	if sweep.Cancelled {
		return cancelRun(ctx, result, timer, tracker)
	}
	if sweep.Truncated {
		fmt.Printf("⚠️ Input truncated to %d records\n", sweep.Processed)
	}

	if valid == 0 {
		// Explicit no-data result: empty lists, still a success.
		tracker.Complete(ctx, map[string]interface{}{"processed": sweep.Processed, "skipped": skipped})
		metrics := timer.Finish()
		fmt.Printf("🏁 Analysis run %s completed in %v (no valid records)\n", runID, time.Since(start))
		return result, &metrics, nil
	}

	// --- AGGREGATION ---
	fmt.Println("📊 Starting aggregation stage...")
	timer.StartStage(string(checkpoint.StageAggregation))
	tracker.EnterStage(ctx, checkpoint.StageAggregation, bandTraversalEnd, map[string]interface{}{
		"valid":   valid,
		"skipped": skipped,
	})

	agg := NewAggregator()
	aggOpts := opts
	aggOpts.OnBatchDone = func(processed, total int) {
		tracker.Progress(ctx, band(bandTraversalEnd, bandAggregationEnd, processed, total), map[string]interface{}{
			"processed": processed,
			"buckets":   agg.BucketCount(),
		})
	}
	sweep, err = Traverse(ctx, records, aggOpts, func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			return
		}
		agg.Observe(i, rec)
	})
	if err != nil {
		return failRun(ctx, result, timer, tracker, fmt.Errorf("aggregation stage: %w", err))
	}
	result.Rollups = agg.Rollups()
	timer.EndStage(string(checkpoint.StageAggregation), sweep.Processed)
	if sweep.Cancelled {
		return cancelRun(ctx, result, timer, tracker)
	}
	fmt.Printf("📊 Aggregation complete: %d categories\n", agg.BucketCount())

	// --- STATISTICS ---
	fmt.Println("🔄 Starting statistics stage...")
	timer.StartStage(string(checkpoint.StageStatistics))
	tracker.EnterStage(ctx, checkpoint.StageStatistics, bandAggregationEnd, map[string]interface{}{
		"valid": valid,
	})

	statsOut, err := ComputeStatistics(ctx, records, cfg, func(pass, processed, total int) {
		if total == 0 {
			return
		}
		frac := (float64(pass-1) + float64(processed)/float64(total)) / 3
		tracker.Progress(ctx, bandAggregationEnd+(bandStatisticsEnd-bandAggregationEnd)*frac, map[string]interface{}{
			"pass":      pass,
			"processed": processed,
		})
	})
	if err != nil {
		return failRun(ctx, result, timer, tracker, err)
	}
	result.Stats = statsOut.Stats.Summary()
	result.HighCostAnomalies = RankAll(statsOut.Anomalies)
	result.OptimizationCandidates = RankAll(statsOut.Candidates)
	timer.EndStage(string(checkpoint.StageStatistics), result.Diagnostics.ProcessedRecordCount)
	if statsOut.Cancelled {
		return cancelRun(ctx, result, timer, tracker)
	}
	fmt.Printf("🔄 Statistics: mean=%.2f stddev=%.2f over %d records\n",
		result.Stats.Mean, result.Stats.StdDev, result.Stats.Count)

	// --- TOP-K ---
	fmt.Println("📊 Starting top-k stage...")
	timer.StartStage(string(checkpoint.StageTopK))
	tracker.EnterStage(ctx, checkpoint.StageTopK, bandStatisticsEnd, nil)

	top := NewCandidateSet(cfg.TopK, cfg.CostThreshold)
	topOpts := opts
	topOpts.OnBatchDone = func(processed, total int) {
		tracker.Progress(ctx, band(bandStatisticsEnd, bandTopKEnd, processed, total), map[string]interface{}{
			"processed": processed,
			"held":      top.Len(),
		})
	}
	sweep, err = Traverse(ctx, records, topOpts, func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			return
		}
		top.Admit(i, *rec)
	})
	if err != nil {
		return failRun(ctx, result, timer, tracker, fmt.Errorf("top-k stage: %w", err))
	}
	result.TopCost = RankAll(top.Result())
	timer.EndStage(string(checkpoint.StageTopK), sweep.Processed)
	if sweep.Cancelled {
		return cancelRun(ctx, result, timer, tracker)
	}

	// --- COMPLETE ---
	tracker.Complete(ctx, map[string]interface{}{
		"processed": result.Diagnostics.ProcessedRecordCount,
		"skipped":   skipped,
		"top_k":     len(result.TopCost),
	})
	metrics := timer.Finish()
	fmt.Printf("🏁 Analysis run %s completed in %v\n", runID, time.Since(start))
	return result, &metrics, nil
}

// band maps intra-stage progress into the stage's slice of overall progress.
func band(lo, hi float64, processed, total int) float64 {
	if total == 0 {
		return hi
	}
	return lo + (hi-lo)*float64(processed)/float64(total)
}

func failRun(ctx context.Context, result *model.AnalysisResult, timer *StageTimer, tracker *checkpoint.RunTracker, err error) (*model.AnalysisResult, *model.RunMetrics, error) {
	result.Diagnostics.Status = model.StatusFailed
	tracker.Fail(ctx, err)
	metrics := timer.Finish()
	log.Printf("❌ Analysis run %s failed: %v", result.RunID, err)
	return result, &metrics, err
}

func cancelRun(ctx context.Context, result *model.AnalysisResult, timer *StageTimer, tracker *checkpoint.RunTracker) (*model.AnalysisResult, *model.RunMetrics, error) {
	result.Diagnostics.Status = model.StatusPartial
	tracker.Cancel(ctx, map[string]interface{}{
		"processed": result.Diagnostics.ProcessedRecordCount,
		"skipped":   result.Diagnostics.SkippedRecordCount,
	})
	metrics := timer.Finish()
	fmt.Printf("⚠️ Analysis run %s cancelled, returning partial result\n", result.RunID)
	return result, &metrics, nil
}
