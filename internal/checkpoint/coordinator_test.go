package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySink is an in-process sink for coordinator tests. It keeps only the
// newest snapshot per (run, stage), like the real tiers do after pruning.
type memorySink struct {
	name    string
	failAll bool
	snaps   map[string]Snapshot
	writes  int
	closed  bool
}

func newMemorySink(name string) *memorySink {
	return &memorySink{name: name, snaps: make(map[string]Snapshot)}
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Write(ctx context.Context, snap Snapshot) error {
	if s.failAll {
		return errors.New("tier down")
	}
	s.writes++
	s.snaps[snap.RunID+"/"+string(snap.Stage)] = snap
	return nil
}

func (s *memorySink) Latest(ctx context.Context, runID string, stage Stage) (*Snapshot, error) {
	snap, ok := s.snaps[runID+"/"+string(stage)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func TestCoordinatorSaveWritesEveryTier(t *testing.T) {
	primary := newMemorySink("primary")
	secondary := newMemorySink("secondary")
	coord := New([]Sink{primary, secondary})

	outcome := coord.Save(context.Background(), Snapshot{RunID: "r1", Stage: StageTraversal, ProgressPercent: 10})

	require.Len(t, outcome.Results, 2)
	assert.True(t, outcome.Durable())
	assert.Empty(t, outcome.Failed())
	assert.Equal(t, 1, outcome.Results[0].Tier)
	assert.Equal(t, "primary", outcome.Results[0].Sink)
	assert.Equal(t, 1, primary.writes)
	assert.Equal(t, 1, secondary.writes)
}

func TestCoordinatorSaveContinuesPastFailedTier(t *testing.T) {
	primary := newMemorySink("primary")
	primary.failAll = true
	secondary := newMemorySink("secondary")
	coord := New([]Sink{primary, secondary})

	outcome := coord.Save(context.Background(), Snapshot{RunID: "r1", Stage: StageTraversal, ProgressPercent: 10})

	assert.False(t, outcome.Durable())
	failed := outcome.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Tier)
	// The failed primary never blocked the secondary.
	assert.Equal(t, 1, secondary.writes)
}

func TestCoordinatorSaveFillsTimestamp(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})

	coord.Save(context.Background(), Snapshot{RunID: "r1", Stage: StageTraversal})

	stored, err := sink.Latest(context.Background(), "r1", StageTraversal)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Timestamp.IsZero())
}

func TestCoordinatorProgressNeverRegresses(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	ctx := context.Background()

	coord.Save(ctx, Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 50})
	coord.Save(ctx, Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 40})

	stored, err := sink.Latest(ctx, "r1", StageStatistics)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 50.0, stored.ProgressPercent)

	// A different stage keeps its own high-water mark.
	coord.Save(ctx, Snapshot{RunID: "r1", Stage: StageTopK, ProgressPercent: 10})
	topk, err := sink.Latest(ctx, "r1", StageTopK)
	require.NoError(t, err)
	assert.Equal(t, 10.0, topk.ProgressPercent)
}

func TestLastCheckpointPrefersFreshPrimary(t *testing.T) {
	primary := newMemorySink("primary")
	secondary := newMemorySink("secondary")
	coord := New([]Sink{primary, secondary})

	now := time.Now().UTC()
	primary.snaps["r1/statistics"] = Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 60, Timestamp: now.Add(-time.Minute)}
	secondary.snaps["r1/statistics"] = Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 65, Timestamp: now}

	snap, err := coord.LastCheckpoint(context.Background(), "r1", StageStatistics)
	require.NoError(t, err)
	require.NotNil(t, snap)
	// Within the staleness bound the primary wins even when a lower tier is newer.
	assert.Equal(t, 60.0, snap.ProgressPercent)
}

func TestLastCheckpointFallsBackWhenPrimaryStale(t *testing.T) {
	primary := newMemorySink("primary")
	secondary := newMemorySink("secondary")
	coord := New([]Sink{primary, secondary}, WithStalenessBound(time.Minute))

	now := time.Now().UTC()
	primary.snaps["r1/statistics"] = Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 60, Timestamp: now.Add(-time.Hour)}
	secondary.snaps["r1/statistics"] = Snapshot{RunID: "r1", Stage: StageStatistics, ProgressPercent: 80, Timestamp: now}

	snap, err := coord.LastCheckpoint(context.Background(), "r1", StageStatistics)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 80.0, snap.ProgressPercent)
}

func TestLastCheckpointMissingEverywhere(t *testing.T) {
	coord := New([]Sink{newMemorySink("primary"), newMemorySink("secondary")})

	snap, err := coord.LastCheckpoint(context.Background(), "nobody", StageTraversal)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestCoordinatorCloseClosesAllSinks(t *testing.T) {
	primary := newMemorySink("primary")
	secondary := newMemorySink("secondary")
	coord := New([]Sink{primary, secondary})

	require.NoError(t, coord.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}
