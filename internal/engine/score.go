package engine

import "go-cost-insights/internal/model"

// Savings assumptions for migrated workloads, as a fraction of the current
// monthly spend.
const (
	savingsRateReady    = 0.30
	savingsRateNotReady = 0.12
)

// PriorityScore favors expensive workloads that are cheap to move: full
// monthly cost at complexity 1, a tenth of it at complexity 10.
func PriorityScore(rec *model.WorkloadRecord) float64 {
	return rec.MonthlyCost * (11 - float64(rec.ComplexityScore)) / 10
}

// SavingsEstimate projects monthly savings after migration.
func SavingsEstimate(rec *model.WorkloadRecord) float64 {
	if rec.MigrationReady {
		return rec.MonthlyCost * savingsRateReady
	}
	return rec.MonthlyCost * savingsRateNotReady
}

// Rank converts a candidate into its output form with derived scores.
func Rank(c Candidate) model.RankedRecord {
	return model.RankedRecord{
		ID:              c.Record.ID,
		Name:            c.Record.Name,
		Category:        c.Record.Category,
		Region:          c.Record.Region,
		MonthlyCost:     c.Record.MonthlyCost,
		PriorityScore:   PriorityScore(&c.Record),
		SavingsEstimate: SavingsEstimate(&c.Record),
	}
}

// RankAll maps candidates into ranked records. Always returns a non-nil
// slice so empty lists serialize as [] rather than null.
func RankAll(cands []Candidate) []model.RankedRecord {
	out := make([]model.RankedRecord, 0, len(cands))
	for _, c := range cands {
		out = append(out, Rank(c))
	}
	return out
}
