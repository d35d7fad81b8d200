package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStartsNotStarted(t *testing.T) {
	coord := New([]Sink{newMemorySink("primary")})
	tracker := coord.Track("r1", 5)
	assert.Equal(t, StateNotStarted, tracker.State())
}

func TestTrackerEnterStageAlwaysWrites(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageTraversal, 0, nil)
	assert.Equal(t, StateRunning, tracker.State())
	assert.Equal(t, 1, sink.writes)

	tracker.EnterStage(ctx, StageAggregation, 25, nil)
	assert.Equal(t, 2, sink.writes)

	snap, err := sink.Latest(ctx, "r1", StageAggregation)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "running", snap.PayloadSummary["state"])
}

func TestTrackerProgressGatedByInterval(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 10)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageTraversal, 0, nil)
	require.Equal(t, 1, sink.writes)

	tracker.Progress(ctx, 3, nil)
	tracker.Progress(ctx, 7, nil)
	assert.Equal(t, 1, sink.writes)

	// Crosses the 10% interval: one write.
	tracker.Progress(ctx, 11, nil)
	assert.Equal(t, 2, sink.writes)

	tracker.Progress(ctx, 15, nil)
	assert.Equal(t, 2, sink.writes)
	tracker.Progress(ctx, 22, nil)
	assert.Equal(t, 3, sink.writes)
}

func TestTrackerProgressIgnoredBeforeStart(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)

	tracker.Progress(context.Background(), 50, nil)
	assert.Equal(t, 0, sink.writes)
	assert.Equal(t, StateNotStarted, tracker.State())
}

func TestTrackerCompleteWritesHundred(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageTopK, 85, nil)
	tracker.Complete(ctx, map[string]interface{}{"processed": 1000})

	assert.Equal(t, StateCompleted, tracker.State())
	snap, err := sink.Latest(ctx, "r1", StageCompleted)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 100.0, snap.ProgressPercent)
	assert.Equal(t, "completed", snap.PayloadSummary["state"])
	assert.Equal(t, 1000, snap.PayloadSummary["processed"])
}

func TestTrackerFailKeepsProgress(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageStatistics, 60, nil)
	tracker.Fail(ctx, errors.New("boom"))

	assert.Equal(t, StateFailed, tracker.State())
	snap, err := sink.Latest(ctx, "r1", StageStatistics)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 60.0, snap.ProgressPercent)
	assert.Equal(t, "failed", snap.PayloadSummary["state"])
	assert.Equal(t, "boom", snap.PayloadSummary["error"])
}

func TestTrackerCancelStaysBelowHundred(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageAggregation, 25, nil)
	tracker.Progress(ctx, 40, nil)
	tracker.Cancel(ctx, nil)

	assert.Equal(t, StateCancelled, tracker.State())
	snap, err := sink.Latest(ctx, "r1", StageAggregation)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "cancelled", snap.PayloadSummary["state"])
	assert.Less(t, snap.ProgressPercent, 100.0)
}

func TestTrackerTerminalStatesAreSticky(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 5)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageTraversal, 0, nil)
	tracker.Complete(ctx, nil)
	writesAfterComplete := sink.writes

	tracker.Fail(ctx, errors.New("too late"))
	tracker.Cancel(ctx, nil)
	tracker.EnterStage(ctx, StageTraversal, 0, nil)
	tracker.Progress(ctx, 99, nil)

	assert.Equal(t, StateCompleted, tracker.State())
	assert.Equal(t, writesAfterComplete, sink.writes)
}

func TestTrackerDefaultInterval(t *testing.T) {
	sink := newMemorySink("primary")
	coord := New([]Sink{sink})
	tracker := coord.Track("r1", 0)
	ctx := context.Background()

	tracker.EnterStage(ctx, StageTraversal, 0, nil)
	require.Equal(t, 1, sink.writes)

	tracker.Progress(ctx, 4, nil)
	assert.Equal(t, 1, sink.writes)
	tracker.Progress(ctx, 5, nil)
	assert.Equal(t, 2, sink.writes)
}
