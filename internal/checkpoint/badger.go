package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures the tier-1 embedded sink.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// InMemoryBadgerConfig returns a config suitable for tests: no files on
// disk, no fsync.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// BadgerSink stores the latest snapshot per (run, stage) in BadgerDB. A
// write overwrites the previous snapshot under the same key, so superseded
// entries are pruned by construction.
type BadgerSink struct {
	db *badger.DB
}

// NewBadgerSink opens (or creates) the badger store described by cfg.
func NewBadgerSink(cfg BadgerConfig) (*BadgerSink, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &BadgerSink{db: db}, nil
}

func (s *BadgerSink) Name() string { return "badger" }

func snapshotKey(runID string, stage Stage) []byte {
	return []byte("checkpoint/" + runID + "/" + string(stage))
}

func (s *BadgerSink) Write(ctx context.Context, snap Snapshot) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snap.RunID, snap.Stage), buf)
	})
}

func (s *BadgerSink) Latest(ctx context.Context, runID string, stage Stage) (*Snapshot, error) {
	var snap *Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(runID, stage))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded Snapshot
			if err := json.Unmarshal(val, &decoded); err != nil {
				return err
			}
			snap = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *BadgerSink) Close() error {
	return s.db.Close()
}
