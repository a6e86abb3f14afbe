// Package v1 provides the HTTP handlers for the debate bridge.
package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// RunService is the run-scoped API served over REST.
type RunService interface {
	tools.DebateService
	ListPublications(ctx context.Context, limit int) ([]domain.Publication, error)
}

// Invoker routes named tool calls.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) *tools.Result
	Tools() []tools.Tool
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests.
type Handler struct {
	service RunService
	router  Invoker
	db      Pinger
}

// NewHandler creates a new handler. db may be nil.
func NewHandler(service RunService, router Invoker, db Pinger) *Handler {
	return &Handler{
		service: service,
		router:  router,
		db:      db,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Tool API
	e.GET("/v1/tools", h.ListTools)
	e.POST("/v1/tools/:tool_name/invoke", h.InvokeTool)

	// Run API
	e.POST("/v1/runs", h.StartRun)
	e.GET("/v1/runs", h.ListRuns)
	e.GET("/v1/runs/:run_id", h.GetRun)
	e.POST("/v1/runs/:run_id/poll", h.PollRun)
	e.GET("/v1/runs/:run_id/result", h.GetResult)
	e.POST("/v1/runs/:run_id/cancel", h.CancelRun)
	e.POST("/v1/runs/:run_id/publish", h.PublishRun)

	e.GET("/v1/publications", h.ListPublications)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
