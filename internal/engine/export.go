package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-cost-insights/internal/model"
	"go-cost-insights/pkg/utils"
)

// ExportResult describes one exported artifact.
type ExportResult struct {
	Type        string    `json:"type"` // "json" or "csv"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// ExportAnalysis writes a run's result into its output directory: the full
// result as JSON plus CSV summaries of the ranked records and the category
// rollup.
func ExportAnalysis(result *model.AnalysisResult, om *utils.OutputManager) ([]ExportResult, error) {
	var exports []ExportResult

	jsonPath, err := om.OutputFilePath(result.RunID, "result.json")
	if err != nil {
		return nil, err
	}
	if err := writeResultJSON(jsonPath, result); err != nil {
		return exports, fmt.Errorf("export result.json: %w", err)
	}
	exports = append(exports, ExportResult{Type: "json", Path: jsonPath, RecordCount: 1, ExportedAt: time.Now().UTC()})
	fmt.Printf("✅ Export: result written to %s\n", jsonPath)

	csvPath, err := om.OutputFilePath(result.RunID, "top_cost.csv")
	if err != nil {
		return exports, err
	}
	n, err := writeRankedCSV(csvPath, result.TopCost)
	if err != nil {
		return exports, fmt.Errorf("export top_cost.csv: %w", err)
	}
	exports = append(exports, ExportResult{Type: "csv", Path: csvPath, RecordCount: n, ExportedAt: time.Now().UTC()})
	fmt.Printf("✅ Export: %d ranked records written to %s\n", n, csvPath)

	rollupPath, err := om.OutputFilePath(result.RunID, "rollups.csv")
	if err != nil {
		return exports, err
	}
	n, err = writeRollupCSV(rollupPath, result.Rollups)
	if err != nil {
		return exports, fmt.Errorf("export rollups.csv: %w", err)
	}
	exports = append(exports, ExportResult{Type: "csv", Path: rollupPath, RecordCount: n, ExportedAt: time.Now().UTC()})
	fmt.Printf("✅ Export: %d category rollups written to %s\n", n, rollupPath)

	return exports, nil
}

func writeResultJSON(path string, result *model.AnalysisResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":      result.RunID,
			"exported_at": time.Now().UTC(),
			"status":      result.Diagnostics.Status,
		},
		"result": result,
	}
	return encoder.Encode(exportData)
}

func writeRankedCSV(path string, records []model.RankedRecord) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"id", "name", "category", "region", "monthly_cost", "priority_score", "savings_estimate"}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Name,
			rec.Category,
			rec.Region,
			strconv.FormatFloat(rec.MonthlyCost, 'f', 2, 64),
			strconv.FormatFloat(rec.PriorityScore, 'f', 2, 64),
			strconv.FormatFloat(rec.SavingsEstimate, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	return len(records), nil
}

func writeRollupCSV(path string, rollups []model.CategoryRollup) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"category", "count", "total_cost"}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rollups {
		row := []string{
			r.Category,
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.TotalCost, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	return len(rollups), nil
}
