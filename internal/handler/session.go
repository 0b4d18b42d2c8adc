package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-access-registry/internal/model"
	"github.com/iliyamo/vehicle-access-registry/internal/repository"
	"github.com/iliyamo/vehicle-access-registry/internal/service"
)

// AccessHandler exposes the session lifecycle and query views over HTTP.
// It translates transport concerns (path params, query strings, status
// codes) and delegates every rule to the service.
type AccessHandler struct {
	Svc *service.AccessService
}

// NewAccessHandler constructs an AccessHandler and panics if the service is
// missing.
func NewAccessHandler(svc *service.AccessService) *AccessHandler {
	if svc == nil {
		panic("nil service passed to NewAccessHandler")
	}
	return &AccessHandler{Svc: svc}
}

// sessionID parses the :id path parameter.
func sessionID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// writeError maps service and repository errors onto the JSON error
// envelope used across the API.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation_failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, repository.ErrAlreadyClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session already closed"})
	case errors.Is(err, repository.ErrPlateActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "plate already has an active session"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage error"})
	}
}

// CreateSession handles POST /v1/sessions and registers a vehicle entry.
func (h *AccessHandler) CreateSession(c echo.Context) error {
	var in service.SessionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	created, err := h.Svc.CreateSession(c.Request().Context(), in, time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetSession handles GET /v1/sessions/:id.
func (h *AccessHandler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Svc.GetSession(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateSession handles PUT /v1/sessions/:id and corrects recorded data.
func (h *AccessHandler) UpdateSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var in service.SessionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	updated, err := h.Svc.UpdateSession(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteSession handles DELETE /v1/sessions/:id and returns the removed
// record.
func (h *AccessHandler) DeleteSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	deleted, err := h.Svc.DeleteSession(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "session deleted",
		"session": deleted,
	})
}

// ListSessions handles GET /v1/sessions and returns the active set,
// optionally narrowed by ?search=, ?tower= and ?role=.
func (h *AccessHandler) ListSessions(c echo.Context) error {
	role := strings.ToLower(strings.TrimSpace(c.QueryParam("role")))
	if role != "" && !model.Role(role).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role filter"})
	}
	f := repository.ActiveFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Tower:  strings.TrimSpace(c.QueryParam("tower")),
		Role:   model.Role(role),
	}
	items, err := h.Svc.ListActive(c.Request().Context(), f, time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
