package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSink is the tier-2 fallback: a plain key-value table, usually in
// the run store's database file. It does not own the *sql.DB handle.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink prepares the snapshot table on the given database.
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS checkpoint_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		progress_percent REAL NOT NULL,
		payload TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checkpoint_run_stage
		ON checkpoint_snapshots (run_id, stage);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap.PayloadSummary)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(
		`INSERT INTO checkpoint_snapshots (run_id, stage, progress_percent, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.RunID, string(snap.Stage), snap.ProgressPercent, string(payload), snap.Timestamp)
	if err != nil {
		return err
	}

	// Prune superseded snapshots for the same stage.
	if last, err := res.LastInsertId(); err == nil {
		s.db.Exec(`DELETE FROM checkpoint_snapshots WHERE run_id = ? AND stage = ? AND id < ?`,
			snap.RunID, string(snap.Stage), last)
	}
	return nil
}

func (s *SQLiteSink) Latest(ctx context.Context, runID string, stage Stage) (*Snapshot, error) {
	var (
		progress  float64
		payload   string
		createdAt time.Time
	)
	err := s.db.QueryRow(
		`SELECT progress_percent, payload, created_at FROM checkpoint_snapshots
		 WHERE run_id = ? AND stage = ? ORDER BY id DESC LIMIT 1`,
		runID, string(stage)).Scan(&progress, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		RunID:           runID,
		Stage:           stage,
		ProgressPercent: progress,
		Timestamp:       createdAt,
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &snap.PayloadSummary); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Close is a no-op: the database handle belongs to the run store.
func (s *SQLiteSink) Close() error {
	return nil
}
