package engine

import (
	"testing"

	"go-cost-insights/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catRec(name, category string, cost float64) model.WorkloadRecord {
	return model.WorkloadRecord{Name: name, Category: category, MonthlyCost: cost, ComplexityScore: 5}
}

func TestAggregatorLazyBuckets(t *testing.T) {
	agg := NewAggregator()
	assert.Equal(t, 0, agg.BucketCount())

	r := catRec("a", "compute", 10)
	agg.Observe(0, &r)
	assert.Equal(t, 1, agg.BucketCount())

	r2 := catRec("b", "compute", 20)
	agg.Observe(1, &r2)
	assert.Equal(t, 1, agg.BucketCount())

	r3 := catRec("c", "storage", 5)
	agg.Observe(2, &r3)
	assert.Equal(t, 2, agg.BucketCount())
}

func TestAggregatorUnknownCategory(t *testing.T) {
	agg := NewAggregator()
	r := catRec("orphan", "", 42)
	agg.Observe(0, &r)

	rollups := agg.Rollups()
	require.Len(t, rollups, 1)
	assert.Equal(t, "unknown", rollups[0].Category)
	assert.Equal(t, 1, rollups[0].Count)
	assert.Equal(t, 42.0, rollups[0].TotalCost)
}

func TestAggregatorRollupsSortedByTotalCost(t *testing.T) {
	agg := NewAggregator()
	recs := []model.WorkloadRecord{
		catRec("a", "storage", 10),
		catRec("b", "compute", 100),
		catRec("c", "storage", 15),
		catRec("d", "network", 40),
		catRec("e", "compute", 50),
	}
	for i := range recs {
		agg.Observe(i, &recs[i])
	}

	rollups := agg.Rollups()
	require.Len(t, rollups, 3)
	assert.Equal(t, "compute", rollups[0].Category)
	assert.Equal(t, 150.0, rollups[0].TotalCost)
	assert.Equal(t, 2, rollups[0].Count)
	assert.Equal(t, "network", rollups[1].Category)
	assert.Equal(t, "storage", rollups[2].Category)
}

func TestAggregatorBucketTopServicesCapped(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < 10; i++ {
		r := catRec("svc", "compute", float64(i+1)*10)
		agg.Observe(i, &r)
	}

	rollups := agg.Rollups()
	require.Len(t, rollups, 1)
	require.Len(t, rollups[0].TopServices, bucketTopServices)
	assert.Equal(t, 100.0, rollups[0].TopServices[0].MonthlyCost)
	assert.Equal(t, 90.0, rollups[0].TopServices[1].MonthlyCost)
	assert.Equal(t, 80.0, rollups[0].TopServices[2].MonthlyCost)
}

func TestAggregatorTieBrokenByName(t *testing.T) {
	agg := NewAggregator()
	recs := []model.WorkloadRecord{
		catRec("a", "zeta", 10),
		catRec("b", "alpha", 10),
	}
	for i := range recs {
		agg.Observe(i, &recs[i])
	}

	rollups := agg.Rollups()
	require.Len(t, rollups, 2)
	assert.Equal(t, "alpha", rollups[0].Category)
	assert.Equal(t, "zeta", rollups[1].Category)
}
