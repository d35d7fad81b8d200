package engine

import (
	"context"
	"testing"

	"go-cost-insights/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(n int) []model.WorkloadRecord {
	records := make([]model.WorkloadRecord, n)
	for i := range records {
		records[i] = rec("r", float64(i))
	}
	return records
}

func TestTraverseVisitsInOrder(t *testing.T) {
	records := makeRecords(95)

	var seen []int
	out, err := Traverse(context.Background(), records, TraverseOptions{BatchSize: 10}, func(i int, r *model.WorkloadRecord) {
		seen = append(seen, i)
	})
	require.NoError(t, err)

	assert.Equal(t, 95, out.Processed)
	assert.False(t, out.Truncated)
	assert.False(t, out.Cancelled)
	require.Len(t, seen, 95)
	for i, idx := range seen {
		assert.Equal(t, i, idx)
	}
}

func TestTraverseBatchCallback(t *testing.T) {
	records := makeRecords(95)

	var checkpoints []int
	_, err := Traverse(context.Background(), records, TraverseOptions{
		BatchSize:   10,
		OnBatchDone: func(processed, total int) { checkpoints = append(checkpoints, processed) },
	}, func(int, *model.WorkloadRecord) {})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 95}, checkpoints)
}

func TestTraverseTruncatesAtMaxRecords(t *testing.T) {
	records := makeRecords(250)

	count := 0
	out, err := Traverse(context.Background(), records, TraverseOptions{BatchSize: 30, MaxRecords: 100}, func(int, *model.WorkloadRecord) {
		count++
	})
	require.NoError(t, err)

	assert.True(t, out.Truncated)
	assert.Equal(t, 100, out.Processed)
	assert.Equal(t, 100, count)
}

func TestTraverseExactCapIsNotTruncated(t *testing.T) {
	records := makeRecords(100)

	out, err := Traverse(context.Background(), records, TraverseOptions{BatchSize: 30, MaxRecords: 100}, func(int, *model.WorkloadRecord) {})
	require.NoError(t, err)

	assert.False(t, out.Truncated)
	assert.Equal(t, 100, out.Processed)
}

func TestTraverseCancelBetweenBatches(t *testing.T) {
	records := makeRecords(100)
	ctx, cancel := context.WithCancel(context.Background())

	count := 0
	out, err := Traverse(ctx, records, TraverseOptions{
		BatchSize: 10,
		OnBatchDone: func(processed, total int) {
			if processed == 30 {
				cancel()
			}
		},
	}, func(int, *model.WorkloadRecord) { count++ })
	require.NoError(t, err)

	// The batch in flight finished; nothing after it started.
	assert.True(t, out.Cancelled)
	assert.Equal(t, 30, out.Processed)
	assert.Equal(t, 30, count)
}

func TestTraverseNegativeBatchSize(t *testing.T) {
	records := makeRecords(10)

	_, err := Traverse(context.Background(), records, TraverseOptions{BatchSize: -1}, func(int, *model.WorkloadRecord) {})
	require.ErrorIs(t, err, ErrBatchingRequired)
}

func TestTraverseEmptyInput(t *testing.T) {
	out, err := Traverse(context.Background(), nil, TraverseOptions{}, func(int, *model.WorkloadRecord) {
		t.Fatal("visitor must not run on empty input")
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Processed)
	assert.False(t, out.Truncated)
}
