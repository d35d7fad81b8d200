package api

import (
	"go-cost-insights/internal/api/handler"
	"go-cost-insights/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.RunHandler) {
	r.POST("/api/v1/runs", h.CreateRun)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*/result", h.GetRunResult)
	r.GET("/api/v1/runs/*/errors", h.GetRunErrors)
	r.GET("/api/v1/runs/*/checkpoints", h.GetRunCheckpoints)
	r.POST("/api/v1/runs/*/cancel", h.CancelRun)
	// Fixed-shape routes above win over this catch-all
	r.GET("/api/v1/runs/*", h.GetRun)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
