package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RegisterExit handles POST /v1/sessions/:id/exit and closes the session.
// A session that is already closed answers 409; the stored exit timestamp
// never moves.
func (h *AccessHandler) RegisterExit(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	closed, err := h.Svc.RegisterExit(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, closed)
}

// AcknowledgeAlert handles POST /v1/sessions/:id/acknowledge. Repeated
// acknowledgments are accepted silently.
func (h *AccessHandler) AcknowledgeAlert(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	acked, err := h.Svc.AcknowledgeAlert(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, acked)
}

// ListAlerts handles GET /v1/alerts and returns the pending overstay
// alerts, longest-overstayed first. Clients poll this endpoint; the
// predicate behind it is evaluated fresh on every request.
func (h *AccessHandler) ListAlerts(c echo.Context) error {
	items, err := h.Svc.ListPendingAlerts(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetStats handles GET /v1/stats and returns the dashboard counters.
func (h *AccessHandler) GetStats(c echo.Context) error {
	st, err := h.Svc.GetStats(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
