package engine

import (
	"context"
	"errors"
	"runtime"

	"go-cost-insights/internal/model"
)

// ErrBatchingRequired is returned when a stage would sweep the dataset
// without a positive batch size. It is never retried.
var ErrBatchingRequired = errors.New("batching required: refusing to traverse with a negative batch size")

// Visitor is invoked once per record with the record's original input index.
type Visitor func(index int, rec *model.WorkloadRecord)

// TraverseOptions controls one sweep over the dataset.
// Zero values fall back to the model defaults.
type TraverseOptions struct {
	BatchSize          int
	YieldEveryNBatches int
	MaxRecords         int

	// OnBatchDone, if set, is called between batches with the number of
	// records visited so far and the effective total.
	OnBatchDone func(processed, total int)
}

// TraverseOutcome reports how a sweep ended.
type TraverseOutcome struct {
	Processed int
	Truncated bool
	Cancelled bool
}

// Traverse visits records in original order, in fixed-size batches. The
// scheduler is yielded every YieldEveryNBatches batches so the engine stays
// cooperative on a busy process. Inputs longer than MaxRecords are cut off
// silently and flagged via Truncated. Cancellation is observed only at
// batch boundaries: a batch that has started always runs to completion.
func Traverse(ctx context.Context, records []model.WorkloadRecord, opts TraverseOptions, visit Visitor) (TraverseOutcome, error) {
	var out TraverseOutcome

	if opts.BatchSize < 0 {
		return out, ErrBatchingRequired
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = model.DefaultBatchSize
	}
	if opts.YieldEveryNBatches <= 0 {
		opts.YieldEveryNBatches = model.DefaultYieldEveryNBatches
	}
	if opts.MaxRecords == 0 {
		opts.MaxRecords = model.DefaultMaxRecords
	}

	total := len(records)
	if opts.MaxRecords > 0 && total > opts.MaxRecords {
		total = opts.MaxRecords
		out.Truncated = true
	}

	batches := 0
	for start := 0; start < total; start += opts.BatchSize {
		if ctx.Err() != nil {
			out.Cancelled = true
			return out, nil
		}

		end := start + opts.BatchSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			visit(i, &records[i])
		}
		out.Processed = end
		batches++

		if opts.OnBatchDone != nil {
			opts.OnBatchDone(end, total)
		}
		if batches%opts.YieldEveryNBatches == 0 {
			runtime.Gosched()
		}
	}

	return out, nil
}
