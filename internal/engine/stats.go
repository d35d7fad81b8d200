package engine

import (
	"context"
	"fmt"
	"math"

	"go-cost-insights/internal/model"
)

// Classification buffers hold a little more than the output limit so late
// arrivals can still displace weaker members before the final cut.
const (
	classificationBufferCap   = 20
	classificationOutputSize  = 10
	anomalyStdDevMultiplier   = 3.0
	optimizationMaxComplexity = 3
)

// RunningStats accumulates the pieces of a two-pass variance computation.
type RunningStats struct {
	Count          int     `json:"count"`
	Sum            float64 `json:"sum"`
	SumSquaredDiff float64 `json:"sum_squared_diff"`
}

// Mean returns the average cost, or 0 when nothing was observed.
func (s RunningStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Variance returns the population variance. Undefined at count 0, reported
// as 0 without dividing.
func (s RunningStats) Variance() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.SumSquaredDiff / float64(s.Count)
}

func (s RunningStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Summary converts the accumulator into its output form.
func (s RunningStats) Summary() model.StatsSummary {
	return model.StatsSummary{
		Count:    s.Count,
		Mean:     s.Mean(),
		Variance: s.Variance(),
		StdDev:   s.StdDev(),
	}
}

// StatsOutcome is the output of the statistical stage.
type StatsOutcome struct {
	Stats      RunningStats
	Anomalies  []Candidate
	Candidates []Candidate
	Truncated  bool
	Cancelled  bool
}

// ComputeStatistics sweeps the dataset in fixed passes: count and sum first,
// squared deviations from the mean second, then a classification sweep that
// feeds high-cost anomalies (cost > mean + 3σ) and optimization candidates
// (cost above mean at complexity ≤ 3) into bounded candidate sets. Invalid
// records are skipped on every pass. With zero valid records the later
// passes are short-circuited so no division ever happens.
func ComputeStatistics(ctx context.Context, records []model.WorkloadRecord, cfg model.AnalysisConfig, progress func(pass, processed, total int)) (StatsOutcome, error) {
	var out StatsOutcome

	opts := func(pass int) TraverseOptions {
		o := TraverseOptions{
			BatchSize:          cfg.BatchSize,
			YieldEveryNBatches: cfg.YieldEveryNBatches,
			MaxRecords:         cfg.MaxRecords,
		}
		if progress != nil {
			o.OnBatchDone = func(processed, total int) {
				progress(pass, processed, total)
			}
		}
		return o
	}

	// Pass 1: count + sum.
	sweep, err := Traverse(ctx, records, opts(1), func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			return
		}
		out.Stats.Count++
		out.Stats.Sum += rec.MonthlyCost
	})
	out.Truncated = sweep.Truncated
	if err != nil {
		return out, fmt.Errorf("statistics pass 1: %w", err)
	}
	if sweep.Cancelled {
		out.Cancelled = true
		return out, nil
	}
	if out.Stats.Count == 0 {
		out.Anomalies = []Candidate{}
		out.Candidates = []Candidate{}
		return out, nil
	}
	mean := out.Stats.Mean()

	// Pass 2: squared deviations.
	sweep, err = Traverse(ctx, records, opts(2), func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			return
		}
		d := rec.MonthlyCost - mean
		out.Stats.SumSquaredDiff += d * d
	})
	if err != nil {
		return out, fmt.Errorf("statistics pass 2: %w", err)
	}
	if sweep.Cancelled {
		out.Cancelled = true
		return out, nil
	}

	// Classification sweep against the finished distribution.
	anomalyCutoff := mean + anomalyStdDevMultiplier*out.Stats.StdDev()
	anomalies := NewCandidateSet(classificationBufferCap, 0)
	candidates := NewCandidateSet(classificationBufferCap, 0)

	sweep, err = Traverse(ctx, records, opts(3), func(i int, rec *model.WorkloadRecord) {
		if ValidateRecord(rec) != nil {
			return
		}
		if rec.MonthlyCost > anomalyCutoff {
			anomalies.Admit(i, *rec)
		}
		if rec.MonthlyCost > mean && rec.ComplexityScore <= optimizationMaxComplexity {
			candidates.Admit(i, *rec)
		}
	})
	if err != nil {
		return out, fmt.Errorf("statistics classification: %w", err)
	}
	out.Cancelled = sweep.Cancelled

	out.Anomalies = topCandidates(anomalies, classificationOutputSize)
	out.Candidates = topCandidates(candidates, classificationOutputSize)
	return out, nil
}

// topCandidates truncates a candidate set's result to the output limit.
func topCandidates(cs *CandidateSet, limit int) []Candidate {
	all := cs.Result()
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
