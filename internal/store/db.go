package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"go-cost-insights/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the sqlite-backed run store. It is a constructed value passed to
// its users, never a package global.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and prepares the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		config TEXT,
		record_count INTEGER,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	resultTable := `
	CREATE TABLE IF NOT EXISTS run_results (
		run_id TEXT PRIMARY KEY,
		result TEXT,
		metrics TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{runTable, errorTable, resultTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle so the tier-2 checkpoint sink can share
// the same database file.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a new analysis run in pending state.
func (s *Store) SaveRun(runID string, cfg model.AnalysisConfig, recordCount int) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO runs (id, config, record_count, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, cfgJSON, recordCount, "pending", now, now)
	return err
}

// UpdateRunStatus updates a run's status.
func (s *Store) UpdateRunStatus(runID, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records an error for a run.
func (s *Store) SaveRunError(runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, runErr.Error(), now)
	return err
}

// ListRuns returns all runs with basic info, newest first.
func (s *Store) ListRuns() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, record_count, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var recordCount int
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &recordCount, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":          id,
			"recordCount": recordCount,
			"status":      status,
			"createdAt":   createdAt,
			"updatedAt":   updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches one run's config and status.
func (s *Store) GetRun(runID string) (map[string]interface{}, error) {
	var cfgJSON, status string
	var recordCount int
	var createdAt, updatedAt time.Time

	err := s.db.QueryRow(`SELECT config, record_count, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&cfgJSON, &recordCount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var cfg model.AnalysisConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":          runID,
		"config":      cfg,
		"recordCount": recordCount,
		"status":      status,
		"createdAt":   createdAt,
		"updatedAt":   updatedAt,
	}, nil
}

// GetRunErrors returns all recorded errors for a run.
func (s *Store) GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var msg string
		var createdAt time.Time
		if err := rows.Scan(&msg, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"error":     msg,
			"createdAt": createdAt,
		})
	}
	return errs, rows.Err()
}

// SaveResult stores (or replaces) a run's result and metrics.
func (s *Store) SaveResult(runID string, result *model.AnalysisResult, metrics *model.RunMetrics) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO run_results (run_id, result, metrics, created_at) VALUES (?, ?, ?, ?)`,
		runID, resultJSON, metricsJSON, now)
	return err
}

// GetResult fetches a run's result and metrics.
func (s *Store) GetResult(runID string) (*model.AnalysisResult, *model.RunMetrics, error) {
	var resultJSON, metricsJSON string
	err := s.db.QueryRow(`SELECT result, metrics FROM run_results WHERE run_id = ?`, runID).
		Scan(&resultJSON, &metricsJSON)
	if err != nil {
		return nil, nil, err
	}

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, nil, err
	}
	var metrics model.RunMetrics
	if err := json.Unmarshal([]byte(metricsJSON), &metrics); err != nil {
		return nil, nil, err
	}
	return &result, &metrics, nil
}
