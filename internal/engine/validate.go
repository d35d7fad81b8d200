package engine

import (
	"fmt"
	"math"

	"go-cost-insights/internal/model"
)

// ValidateRecord reports why a record cannot take part in analysis, or nil
// if it can. Invalid records are skipped and counted, never fatal.
func ValidateRecord(rec *model.WorkloadRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if math.IsNaN(rec.MonthlyCost) || math.IsInf(rec.MonthlyCost, 0) {
		return fmt.Errorf("monthly_cost is not a finite number")
	}
	if rec.MonthlyCost < 0 {
		return fmt.Errorf("monthly_cost below minimum: got %v, want ≥ 0", rec.MonthlyCost)
	}
	if rec.ComplexityScore < 1 || rec.ComplexityScore > 10 {
		return fmt.Errorf("complexity_score out of range: got %d, want 1..10", rec.ComplexityScore)
	}
	return nil
}
