package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListTools returns the routable tools.
// GET /v1/tools
func (h *Handler) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tools": h.router.Tools(),
	})
}

// InvokeTool runs one tool. The body is the tool's JSON argument object.
// Tool failures are reported in the result envelope with a 200 status.
// POST /v1/tools/:tool_name/invoke
func (h *Handler) InvokeTool(c echo.Context) error {
	toolName := c.Param("tool_name")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	var args json.RawMessage
	if len(body) > 0 {
		if !json.Valid(body) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "request body must be JSON"})
		}
		args = body
	}

	res := h.router.Invoke(c.Request().Context(), toolName, args)
	return c.JSON(http.StatusOK, res)
}
