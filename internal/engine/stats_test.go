package engine

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"go-cost-insights/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningStatsZeroCount(t *testing.T) {
	var s RunningStats
	assert.Equal(t, 0.0, s.Mean())
	assert.Equal(t, 0.0, s.Variance())
	assert.Equal(t, 0.0, s.StdDev())
	assert.False(t, math.IsNaN(s.StdDev()))
}

func TestComputeStatisticsMatchesNaiveVariance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]model.WorkloadRecord, 5000)
	for i := range records {
		records[i] = rec("r", 50+rng.Float64()*950)
	}

	out, err := ComputeStatistics(context.Background(), records, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)
	require.Equal(t, 5000, out.Stats.Count)

	// Naive single-pass reference.
	var sum float64
	for _, r := range records {
		sum += r.MonthlyCost
	}
	mean := sum / float64(len(records))
	var sqDiff float64
	for _, r := range records {
		d := r.MonthlyCost - mean
		sqDiff += d * d
	}
	naiveVariance := sqDiff / float64(len(records))

	assert.InDelta(t, mean, out.Stats.Mean(), 1e-9)
	assert.InDelta(t, naiveVariance, out.Stats.Variance(), naiveVariance*1e-9)
}

func TestComputeStatisticsAnomalyInjection(t *testing.T) {
	records := make([]model.WorkloadRecord, 1000)
	for i := range records {
		records[i] = rec("steady", 100)
	}
	records[500] = rec("runaway", 10000)

	out, err := ComputeStatistics(context.Background(), records, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)

	require.Len(t, out.Anomalies, 1)
	assert.Equal(t, "runaway", out.Anomalies[0].Record.Name)
	assert.Equal(t, 500, out.Anomalies[0].Index)
}

func TestComputeStatisticsOptimizationCandidates(t *testing.T) {
	records := []model.WorkloadRecord{
		{Name: "cheap-simple", MonthlyCost: 10, ComplexityScore: 2},
		{Name: "dear-simple", MonthlyCost: 500, ComplexityScore: 2},
		{Name: "dear-complex", MonthlyCost: 600, ComplexityScore: 9},
		{Name: "dear-borderline", MonthlyCost: 400, ComplexityScore: 3},
	}

	out, err := ComputeStatistics(context.Background(), records, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)

	// Mean is 377.5: above-mean spend at complexity <= 3 qualifies.
	names := make([]string, 0, len(out.Candidates))
	for _, c := range out.Candidates {
		names = append(names, c.Record.Name)
	}
	assert.Equal(t, []string{"dear-simple", "dear-borderline"}, names)
}

func TestComputeStatisticsSkipsInvalidRecords(t *testing.T) {
	records := []model.WorkloadRecord{
		rec("ok-1", 100),
		{Name: "negative", MonthlyCost: -5, ComplexityScore: 5},
		{Name: "", MonthlyCost: 50, ComplexityScore: 5},
		rec("ok-2", 300),
	}

	out, err := ComputeStatistics(context.Background(), records, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Stats.Count)
	assert.InDelta(t, 200.0, out.Stats.Mean(), 1e-9)
}

func TestComputeStatisticsEmptyInput(t *testing.T) {
	out, err := ComputeStatistics(context.Background(), nil, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, out.Stats.Count)
	assert.Empty(t, out.Anomalies)
	assert.Empty(t, out.Candidates)
	summary := out.Stats.Summary()
	assert.False(t, math.IsNaN(summary.Mean))
	assert.False(t, math.IsNaN(summary.StdDev))
}

func TestComputeStatisticsClassificationCapped(t *testing.T) {
	// Fifty candidates qualify; the output is cut to the top ten by cost.
	records := make([]model.WorkloadRecord, 100)
	for i := 0; i < 50; i++ {
		records[i] = model.WorkloadRecord{Name: "low", MonthlyCost: 1, ComplexityScore: 8}
	}
	for i := 50; i < 100; i++ {
		records[i] = model.WorkloadRecord{Name: "candidate", MonthlyCost: float64(i), ComplexityScore: 2}
	}

	out, err := ComputeStatistics(context.Background(), records, model.AnalysisConfig{}.WithDefaults(), nil)
	require.NoError(t, err)

	require.Len(t, out.Candidates, classificationOutputSize)
	assert.Equal(t, 99.0, out.Candidates[0].Record.MonthlyCost)
	for i := 1; i < len(out.Candidates); i++ {
		assert.GreaterOrEqual(t, out.Candidates[i-1].Record.MonthlyCost, out.Candidates[i].Record.MonthlyCost)
	}
}
