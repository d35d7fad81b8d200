package main

import (
	"log"

	_ "go-cost-insights/docs"
	"go-cost-insights/internal/api"
	"go-cost-insights/internal/api/handler"
	"go-cost-insights/internal/checkpoint"
	"go-cost-insights/internal/engine"
	"go-cost-insights/internal/store"
	"go-cost-insights/pkg/router"
)

// @title Cost Insights API
// @version 1.0
// @description Bounded-memory workload cost analysis with tiered checkpointing
// @host localhost:8080
// @BasePath /api/v1
func main() {
	st, err := store.Open("insights.db")
	if err != nil {
		log.Fatalf("❌ Failed to open run store: %v", err)
	}

	badgerSink, err := checkpoint.NewBadgerSink(checkpoint.BadgerConfig{Path: "checkpoints", SyncWrites: true})
	if err != nil {
		log.Fatalf("❌ Failed to open checkpoint store: %v", err)
	}
	sqliteSink, err := checkpoint.NewSQLiteSink(st.DB())
	if err != nil {
		log.Fatalf("❌ Failed to prepare checkpoint fallback: %v", err)
	}
	coord := checkpoint.New([]checkpoint.Sink{badgerSink, sqliteSink})

	h := handler.NewRunHandler(st, coord, engine.NewRegistry())

	r := router.New()
	api.RegisterRoutes(r, h)

	r.Start(":8080")
}
