package engine

import (
	"sort"

	"go-cost-insights/internal/model"
)

// Records without a category land in the sentinel bucket.
const unknownCategory = "unknown"

// Each bucket keeps its own small leader board.
const bucketTopServices = 3

// CategoryBucket accumulates one spend category.
type CategoryBucket struct {
	Count     int
	TotalCost float64
	Top       *CandidateSet
}

// Aggregator groups records by category in a single pass. Buckets are
// created on first sight and never deleted mid-run, so memory stays
// proportional to the number of distinct categories.
type Aggregator struct {
	buckets map[string]*CategoryBucket
}

func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[string]*CategoryBucket)}
}

// Observe folds one record into its category bucket.
func (a *Aggregator) Observe(index int, rec *model.WorkloadRecord) {
	key := rec.Category
	if key == "" {
		key = unknownCategory
	}

	b, ok := a.buckets[key]
	if !ok {
		b = &CategoryBucket{Top: NewCandidateSet(bucketTopServices, 0)}
		a.buckets[key] = b
	}

	b.Count++
	b.TotalCost += rec.MonthlyCost
	b.Top.Admit(index, *rec)
}

// BucketCount returns the number of distinct categories seen.
func (a *Aggregator) BucketCount() int {
	return len(a.buckets)
}

// Rollups flattens the buckets, sorted by total cost descending with the
// category name as tie-breaker so output order is stable.
func (a *Aggregator) Rollups() []model.CategoryRollup {
	out := make([]model.CategoryRollup, 0, len(a.buckets))
	for name, b := range a.buckets {
		out = append(out, model.CategoryRollup{
			Category:    name,
			Count:       b.Count,
			TotalCost:   b.TotalCost,
			TopServices: RankAll(b.Top.Result()),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].Category < out[j].Category
	})
	return out
}
