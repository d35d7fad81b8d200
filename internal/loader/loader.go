package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go-cost-insights/internal/model"
	"go-cost-insights/pkg/utils"
)

// LoadFile reads workload records from a CSV or JSON dataset file. Cells
// that fail to parse yield records that fail validation downstream, so the
// engine's skip-and-count policy owns malformed data; the loader only fails
// on unreadable files.
func LoadFile(path string) ([]model.WorkloadRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %q", filepath.Ext(path))
	}
}

func loadCSV(path string) ([]model.WorkloadRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Clean header names: trim whitespace and strip quotes.
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		clean := strings.TrimSpace(h)
		clean = strings.ReplaceAll(clean, `"`, "")
		cols[strings.ToLower(clean)] = i
	}

	cell := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []model.WorkloadRecord
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		rec := model.WorkloadRecord{
			ID:             strings.TrimSpace(cell(row, "id")),
			Name:           strings.TrimSpace(cell(row, "name")),
			Category:       strings.TrimSpace(cell(row, "category")),
			Region:         strings.TrimSpace(cell(row, "region")),
			MigrationReady: utils.ParseBool(cell(row, "migration_ready")),
		}
		if cost, ok := utils.ParseFloat(cell(row, "monthly_cost")); ok {
			rec.MonthlyCost = cost
		} else {
			rec.MonthlyCost = math.NaN() // skipped by validation
		}
		if score, ok := utils.ParseInt(cell(row, "complexity_score")); ok {
			rec.ComplexityScore = score
		}
		records = append(records, rec)
	}

	fmt.Printf("📄 Loaded %d records from %s\n", len(records), path)
	return records, nil
}

func loadJSON(path string) ([]model.WorkloadRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	var records []model.WorkloadRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON dataset: %w", err)
	}

	fmt.Printf("📄 Loaded %d records from %s\n", len(records), path)
	return records, nil
}
