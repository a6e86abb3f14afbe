package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// StartRun opens a new debate.
// POST /v1/runs
func (h *Handler) StartRun(c echo.Context) error {
	var req domain.StartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := h.service.StartRun(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListRuns lists tracked runs.
// GET /v1/runs
func (h *Handler) ListRuns(c echo.Context) error {
	resp, err := h.service.ListRuns(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetRun returns a run's summary without consuming events.
// GET /v1/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	info, err := h.service.GetRunInfo(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// PollRun long-polls for new events.
// POST /v1/runs/:run_id/poll?timeout_ms=
func (h *Handler) PollRun(c echo.Context) error {
	req := domain.PollRequest{RunID: c.Param("run_id")}
	if t := c.QueryParam("timeout_ms"); t != "" {
		val, err := strconv.Atoi(t)
		if err != nil {
			return writeError(c, apperr.InvalidArgument("timeout_ms", "must be an integer"))
		}
		req.TimeoutMs = &val
	}

	resp, err := h.service.Poll(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetResult returns the terminal payload of a completed run.
// GET /v1/runs/:run_id/result
func (h *Handler) GetResult(c echo.Context) error {
	res, err := h.service.GetResult(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CancelRun cancels a running debate.
// POST /v1/runs/:run_id/cancel
func (h *Handler) CancelRun(c echo.Context) error {
	resp, err := h.service.CancelRun(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// PublishRun publishes a completed debate.
// POST /v1/runs/:run_id/publish
func (h *Handler) PublishRun(c echo.Context) error {
	resp, err := h.service.Publish(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListPublications lists archived publications, newest first.
// GET /v1/publications?limit=
func (h *Handler) ListPublications(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val < 0 {
			return writeError(c, apperr.InvalidArgument("limit", "must be a non-negative integer"))
		}
		limit = val
	}

	pubs, err := h.service.ListPublications(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	if pubs == nil {
		pubs = []domain.Publication{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"publications": pubs,
	})
}

func writeError(c echo.Context, err error) error {
	appErr, ok := apperr.As(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			appErr = apperr.Wrap(apperr.CodeInternal, "request canceled", err)
			return c.JSON(http.StatusRequestTimeout, map[string]interface{}{"error": appErr})
		}
		appErr = apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	return c.JSON(statusFor(appErr.Code), map[string]interface{}{"error": appErr})
}

func statusFor(code string) int {
	switch code {
	case apperr.CodeNotFound, apperr.CodeUnknownTool:
		return http.StatusNotFound
	case apperr.CodeWrongState:
		return http.StatusConflict
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeNotAvailable:
		return http.StatusUnprocessableEntity
	case apperr.CodeUpstream:
		return http.StatusBadGateway
	case apperr.CodePolicyBlocked:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
