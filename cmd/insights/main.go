package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go-cost-insights/internal/checkpoint"
	"go-cost-insights/internal/engine"
	"go-cost-insights/internal/loader"
	"go-cost-insights/internal/model"
	"go-cost-insights/internal/store"
	"go-cost-insights/pkg/utils"

	"github.com/google/uuid"
)

func main() {
	var (
		input         = flag.String("input", "", "dataset file (.csv or .json)")
		dbPath        = flag.String("db", "insights.db", "sqlite database path")
		checkpointDir = flag.String("checkpoint-dir", "checkpoints", "badger directory for tier-1 checkpoints")
		remote        = flag.String("remote", "", "optional remote checkpoint endpoint")
		outDir        = flag.String("out", "outputs", "directory for exported results")
		topK          = flag.Int("top-k", 0, "top-k list size (0 = default)")
		batchSize     = flag.Int("batch-size", 0, "traversal batch size (0 = default)")
		maxRecords    = flag.Int("max-records", 0, "input cap before truncation (0 = default)")
		timeout       = flag.Duration("timeout", 5*time.Minute, "run timeout")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		log.Fatal("❌ -input is required")
	}

	records, err := loader.LoadFile(*input)
	if err != nil {
		log.Fatalf("❌ Failed to load dataset: %v", err)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to open run store: %v", err)
	}
	defer st.Close()

	badgerSink, err := checkpoint.NewBadgerSink(checkpoint.BadgerConfig{Path: *checkpointDir, SyncWrites: true})
	if err != nil {
		log.Fatalf("❌ Failed to open checkpoint store: %v", err)
	}
	sqliteSink, err := checkpoint.NewSQLiteSink(st.DB())
	if err != nil {
		log.Fatalf("❌ Failed to prepare checkpoint fallback: %v", err)
	}
	sinks := []checkpoint.Sink{badgerSink, sqliteSink}
	if *remote != "" {
		sinks = append(sinks, checkpoint.NewRemoteSink(*remote, 0))
	}
	coord := checkpoint.New(sinks)
	defer coord.Close()

	cfg := model.AnalysisConfig{
		BatchSize:  *batchSize,
		MaxRecords: *maxRecords,
		TopK:       *topK,
	}

	runID := uuid.New().String()
	if err := st.SaveRun(runID, cfg, len(records)); err != nil {
		log.Fatalf("❌ Failed to save run: %v", err)
	}
	st.UpdateRunStatus(runID, "running")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, metrics, err := engine.Run(ctx, runID, records, cfg, coord)
	if err != nil {
		st.UpdateRunStatus(runID, "failed")
		st.SaveRunError(runID, err)
		log.Fatalf("❌ Analysis failed: %v", err)
	}
	st.SaveResult(runID, result, metrics)
	st.UpdateRunStatus(runID, result.Diagnostics.Status)

	om := utils.NewOutputManager(*outDir)
	if _, err := engine.ExportAnalysis(result, om); err != nil {
		log.Printf("❌ Export failed: %v", err)
	}

	fmt.Printf("💾 Run %s: %d processed, %d skipped, %d top-cost, %d categories (status: %s)\n",
		runID,
		result.Diagnostics.ProcessedRecordCount,
		result.Diagnostics.SkippedRecordCount,
		len(result.TopCost),
		len(result.Rollups),
		result.Diagnostics.Status,
	)
}
