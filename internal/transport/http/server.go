// Package http provides the HTTP server implementation for the debate bridge.
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	v1 "github.com/xiaot623/gogo/debatebridge/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server. metricsHandler, when set,
// is served on /metrics.
func NewServer(h *v1.Handler, metricsHandler http.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Register Routes
	h.RegisterRoutes(e)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	return e
}
