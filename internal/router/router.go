// Package router wires the HTTP surface of the registry onto an Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-access-registry/internal/handler"
	"github.com/iliyamo/vehicle-access-registry/internal/middleware"
)

// RegisterRoutes registers the health check on the provided Echo instance.
// It carries no middleware so probes stay cheap.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAccess registers the session lifecycle and query endpoints under
// /v1. The read-only views take the response cache; every write goes
// through the invalidation middleware so cached views never outlive a
// state change. rc may be nil when Redis is not configured.
func RegisterAccess(e *echo.Echo, h *handler.AccessHandler, rc *middleware.ResponseCache) {
	read := rc.Read()
	invalidate := rc.Invalidate()

	g := e.Group("/v1")

	// Read-only projections. These are the endpoints the concierge UI polls
	// once a minute.
	g.GET("/sessions", h.ListSessions, read)
	g.GET("/sessions/:id", h.GetSession, read)
	g.GET("/alerts", h.ListAlerts, read)
	g.GET("/stats", h.GetStats, read)

	// Lifecycle writes.
	g.POST("/sessions", h.CreateSession, invalidate)
	g.PUT("/sessions/:id", h.UpdateSession, invalidate)
	g.DELETE("/sessions/:id", h.DeleteSession, invalidate)
	g.POST("/sessions/:id/exit", h.RegisterExit, invalidate)
	g.POST("/sessions/:id/acknowledge", h.AcknowledgeAlert, invalidate)
}
